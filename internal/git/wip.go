package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// updateWipRevision rebuilds the synthetic working-tree revision: the
// current HEAD hash as parent, the raw unstaged and staged diff-index
// output, and the untracked file list. Diff commands are skipped on an
// unborn branch.
func (l *RepoLoader) updateWipRevision(ctx context.Context) {
	l.store.SetUntrackedFiles(l.untrackedFiles(ctx))

	out, err := l.base.Run(ctx, "rev-parse", "--revs-only", "HEAD")
	if err != nil {
		slog.Debug("wip parent lookup failed", slog.Any("error", err))
		return
	}
	parentSha := strings.TrimSpace(out)

	var diffIndex, diffIndexCached string
	if parentSha != "" {
		if out, err := l.base.Run(ctx, "diff-index", parentSha); err == nil {
			diffIndex = out
		}
		if out, err := l.base.Run(ctx, "diff-index", "--cached", parentSha); err == nil {
			diffIndexCached = out
		}
	}

	l.store.UpdateWipCommit(parentSha, diffIndex, diffIndexCached)
}

// untrackedFiles enumerates files unknown to the index, honoring the local
// exclude file when it exists and the per-directory ignore files. Returns
// a deduplicated list preserving the source order; a command failure
// yields an empty list.
func (l *RepoLoader) untrackedFiles(ctx context.Context) []string {
	args := []string{"ls-files", "--others"}
	excludeFile := filepath.Join(l.base.WorkingDir(), ".git", "info", "exclude")
	if _, err := os.Stat(excludeFile); err == nil {
		args = append(args, "--exclude-from="+excludeFile)
	}
	args = append(args, "--exclude-per-directory=.gitignore")

	out, err := l.base.Run(ctx, args...)
	if err != nil {
		slog.Debug("untracked files listing failed", slog.Any("error", err))
		return nil
	}

	seen := make(map[string]struct{})
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		files = append(files, line)
	}
	return files
}
