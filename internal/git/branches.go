package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const defaultRemote = "origin"

// GitBranches computes divergence metrics for local branches.
type GitBranches struct {
	base *GitBase
}

func NewGitBranches(base *GitBase) *GitBranches {
	return &GitBranches{base: base}
}

// Distances returns the ahead/behind counts of branch versus the
// master-equivalent upstream and versus its remote counterpart. A
// comparison that fails (no such upstream) contributes zeros instead of an
// error.
func (b *GitBranches) Distances(ctx context.Context, branch string) LocalBranchDistances {
	remote := b.remoteFor(branch)

	var d LocalBranchDistances
	d.BehindMaster, d.AheadMaster = b.distanceBetween(ctx, remote+"/master", branch)
	d.BehindOrigin, d.AheadOrigin = b.distanceBetween(ctx, remote+"/"+branch, branch)
	return d
}

// distanceBetween runs one divergence query, whose output is a
// tab-separated "behind\tahead" pair.
func (b *GitBranches) distanceBetween(ctx context.Context, upstream, branch string) (behind, ahead int) {
	out, err := b.base.Run(ctx, "rev-list", "--left-right", "--count", upstream+"..."+branch)
	if err != nil {
		return 0, 0
	}
	return parseDistance(out)
}

func parseDistance(out string) (behind, ahead int) {
	if strings.Contains(out, "fatal") {
		return 0, 0
	}
	out = strings.ReplaceAll(out, "\n", "")
	values := strings.Split(out, "\t")
	behind, _ = strconv.Atoi(values[0])
	ahead, _ = strconv.Atoi(values[len(values)-1])
	return behind, ahead
}

// remoteFor resolves the remote the branch tracks from .git/config,
// falling back to origin.
func (b *GitBranches) remoteFor(branch string) string {
	cfg, err := ini.Load(filepath.Join(b.base.WorkingDir(), ".git", "config"))
	if err != nil {
		return defaultRemote
	}
	remote := cfg.Section(fmt.Sprintf("branch %q", branch)).Key("remote").String()
	if remote == "" {
		return defaultRemote
	}
	return remote
}
