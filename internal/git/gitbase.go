package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Executor runs a git command in a directory and returns its standard
// output. The default implementation shells out to the git executable, but
// the interface allows a fake for tests.
type Executor interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

type localExecutor struct{}

// NewLocalExecutor returns an Executor backed by the git binary on PATH.
func NewLocalExecutor() Executor {
	return localExecutor{}
}

func (localExecutor) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("repository root not set")
	}
	cmdArgs := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		label := "git"
		if len(args) > 0 {
			label = "git " + args[0]
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s: %v: %s", label, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s: %w", label, err)
	}
	return stdout.String(), nil
}

// GitBase holds the repository context shared by the loader and its
// helpers: the working directory and the branch HEAD points at.
type GitBase struct {
	exec Executor

	mu            sync.Mutex
	workingDir    string
	currentBranch string
}

func NewGitBase(executor Executor, workingDir string) *GitBase {
	if workingDir == "" {
		return &GitBase{exec: executor}
	}
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		abs = workingDir
	}
	return &GitBase{exec: executor, workingDir: abs}
}

func (g *GitBase) WorkingDir() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.workingDir
}

func (g *GitBase) SetWorkingDir(dir string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.workingDir = dir
}

// Run executes a git command in the working directory, blocking the caller
// until it exits.
func (g *GitBase) Run(ctx context.Context, args ...string) (string, error) {
	return g.exec.Run(ctx, g.WorkingDir(), args...)
}

// UpdateCurrentBranch refreshes the cached branch name from HEAD. A
// detached HEAD yields the literal "HEAD".
func (g *GitBase) UpdateCurrentBranch(ctx context.Context) {
	out, err := g.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.currentBranch = ""
		return
	}
	g.currentBranch = strings.TrimSpace(out)
}

func (g *GitBase) CurrentBranch() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentBranch
}

// LastCommit returns the hash HEAD resolves to, or an error on an unborn
// branch.
func (g *GitBase) LastCommit(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
