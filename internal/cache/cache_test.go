package cache

import (
	"testing"

	"github.com/lit1088/gitqlient/internal/git"
)

const (
	shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func populated(t *testing.T) *RevisionsCache {
	t.Helper()
	c := New()
	c.Configure(2)
	c.UpdateWipCommit(shaA, "", "")
	c.InsertCommit(git.CommitInfo{Sha: shaA, ShortLog: "second"}, 1)
	c.InsertCommit(git.CommitInfo{Sha: shaB, ShortLog: "first"}, 2)
	return c
}

func TestInsertCommit_LockedUntilConfigure(t *testing.T) {
	t.Parallel()

	c := New()
	c.InsertCommit(git.CommitInfo{Sha: shaA}, 1)
	if c.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (insert before Configure must be dropped)", c.Count())
	}

	c.Configure(1)
	c.InsertCommit(git.CommitInfo{Sha: shaA}, 1)
	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}
}

func TestInsertCommit_DuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	c := New()
	c.Configure(2)
	c.InsertCommit(git.CommitInfo{Sha: shaA, ShortLog: "original"}, 1)
	c.InsertCommit(git.CommitInfo{Sha: shaA, ShortLog: "duplicate"}, 2)

	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}
	commit, ok := c.Commit(shaA)
	if !ok || commit.ShortLog != "original" {
		t.Fatalf("Commit(%q) = %+v, %v", shaA, commit, ok)
	}
}

func TestLookups(t *testing.T) {
	t.Parallel()

	c := populated(t)

	if c.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", c.Count())
	}
	wip, ok := c.CommitByRow(0)
	if !ok || wip.Sha != git.ZeroSha {
		t.Fatalf("CommitByRow(0) = %+v, %v, want the working-tree revision", wip, ok)
	}
	if len(wip.Parents) != 1 || wip.Parents[0] != shaA {
		t.Fatalf("wip parents = %#v, want [%s]", wip.Parents, shaA)
	}
	if row, ok := c.CommitByRow(1); !ok || row.Sha != shaA {
		t.Fatalf("CommitByRow(1) = %+v, %v", row, ok)
	}
	if pos := c.CommitPos(shaB); pos != 2 {
		t.Fatalf("CommitPos(%q) = %d, want 2", shaB, pos)
	}
	if pos := c.CommitPos("missing"); pos != -1 {
		t.Fatalf("CommitPos(missing) = %d, want -1", pos)
	}
	if _, ok := c.CommitByRow(99); ok {
		t.Fatal("CommitByRow(99) should report absence")
	}
}

func TestUpdateWipCommit(t *testing.T) {
	t.Parallel()

	c := New()
	c.Configure(0)
	c.UpdateWipCommit(shaA, ":100644 100644 ... M\tfile.go", "")

	wip, ok := c.CommitByRow(0)
	if !ok {
		t.Fatal("expected a working-tree revision at row 0")
	}
	if wip.ShortLog != "Local changes" {
		t.Fatalf("short log = %q, want %q", wip.ShortLog, "Local changes")
	}
	if !wip.IsWip() {
		t.Fatal("row 0 must carry the zero hash")
	}
	if !c.PendingLocalChanges() {
		t.Fatal("PendingLocalChanges() = false, want true")
	}
	diff, cached := c.WipDiffs()
	if diff == "" || cached != "" {
		t.Fatalf("WipDiffs() = (%q, %q)", diff, cached)
	}
}

func TestUpdateWipCommit_Clean(t *testing.T) {
	t.Parallel()

	c := New()
	c.Configure(0)
	c.UpdateWipCommit("", "", "")

	wip, ok := c.CommitByRow(0)
	if !ok {
		t.Fatal("expected a working-tree revision at row 0")
	}
	if wip.ShortLog != "No local changes" {
		t.Fatalf("short log = %q, want %q", wip.ShortLog, "No local changes")
	}
	if len(wip.Parents) != 0 {
		t.Fatalf("parents = %#v, want none on an unborn branch", wip.Parents)
	}
	if c.PendingLocalChanges() {
		t.Fatal("PendingLocalChanges() = true, want false")
	}
}

func TestReferences(t *testing.T) {
	t.Parallel()

	c := New()
	c.InsertReference(shaA, git.RefTypeLocalBranch, "main")
	c.InsertReference(shaB, git.RefTypeLocalBranch, "feature")
	c.InsertReference(shaA, git.RefTypeTag, "v1")

	branches := c.References(git.RefTypeLocalBranch)
	if len(branches) != 2 || branches[0].Name != "feature" || branches[1].Name != "main" {
		t.Fatalf("References(local) = %#v, want sorted by name", branches)
	}
	if tags := c.References(git.RefTypeTag); len(tags) != 1 || tags[0].Sha != shaA {
		t.Fatalf("References(tag) = %#v", tags)
	}
	if remotes := c.References(git.RefTypeRemoteBranch); len(remotes) != 0 {
		t.Fatalf("References(remote) = %#v, want empty", remotes)
	}

	if sha, ok := c.CommitForBranch("main", true); !ok || sha != shaA {
		t.Fatalf("CommitForBranch(main) = %q, %v", sha, ok)
	}
	if _, ok := c.CommitForBranch("main", false); ok {
		t.Fatal("CommitForBranch(main, remote) should report absence")
	}
}

func TestLocalBranchDistances(t *testing.T) {
	t.Parallel()

	c := New()
	if d := c.LocalBranchDistances("main"); d != (git.LocalBranchDistances{}) {
		t.Fatalf("unset distances = %+v, want zeros", d)
	}
	c.InsertLocalBranchDistances("main", git.LocalBranchDistances{AheadMaster: 3, BehindOrigin: 1})
	if d := c.LocalBranchDistances("main"); d.AheadMaster != 3 || d.BehindOrigin != 1 {
		t.Fatalf("distances = %+v", d)
	}
}

func TestUntrackedFiles_CopyIsolation(t *testing.T) {
	t.Parallel()

	c := New()
	in := []string{"a.txt", "b.txt"}
	c.SetUntrackedFiles(in)
	in[0] = "mutated"

	files := c.UntrackedFiles()
	if files[0] != "a.txt" {
		t.Fatalf("cache shares the caller's slice: %#v", files)
	}
	files[1] = "mutated"
	if c.UntrackedFiles()[1] != "b.txt" {
		t.Fatal("reader mutation leaked into the cache")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := populated(t)
	c.InsertReference(shaA, git.RefTypeTag, "v1")
	c.Clear()

	if c.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after clear", c.Count())
	}
	if _, ok := c.Commit(shaA); ok {
		t.Fatal("commits must be gone after clear")
	}
	if refs := c.References(git.RefTypeTag); len(refs) != 0 {
		t.Fatalf("references must be gone after clear, got %#v", refs)
	}

	// Clear locks the cache again; inserts are rejected until Configure.
	c.InsertCommit(git.CommitInfo{Sha: shaB}, 1)
	if _, ok := c.Commit(shaB); ok {
		t.Fatal("insert after clear must be dropped until Configure")
	}
}
