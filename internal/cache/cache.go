// Package cache holds the in-memory revision store populated by the
// repository loader and queried by the presentation layer.
package cache

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lit1088/gitqlient/internal/git"
)

// RevisionsCache maps commit hashes to revision records and keeps their
// load order, plus reference mappings and per-branch divergence metrics.
//
// The loader is the sole writer during a load cycle and clears the cache
// fully before starting a new one. Concurrent reads are only safe once the
// cycle's finished event has fired; the internal lock protects the cache's
// own invariants, not a reader's view of a half-ingested cycle.
type RevisionsCache struct {
	mu     sync.RWMutex
	locked bool

	// commits is ordered by sequence index; row 0 is reserved for the
	// synthetic working-tree revision.
	commits      []*git.CommitInfo
	commitsBySha map[string]*git.CommitInfo

	references map[git.RefType]map[string]string
	distances  map[string]git.LocalBranchDistances
	untracked  []string

	wipDiffIndex       string
	wipDiffIndexCached string
}

var _ git.RevisionStore = (*RevisionsCache)(nil)

func New() *RevisionsCache {
	c := &RevisionsCache{locked: true}
	c.reset()
	return c
}

func (c *RevisionsCache) reset() {
	c.commits = make([]*git.CommitInfo, 1)
	c.commitsBySha = make(map[string]*git.CommitInfo)
	c.references = make(map[git.RefType]map[string]string)
	c.distances = make(map[string]git.LocalBranchDistances)
	c.untracked = nil
	c.wipDiffIndex = ""
	c.wipDiffIndexCached = ""
}

// Clear wipes all state and locks the cache until the next Configure.
func (c *RevisionsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked = true
	c.reset()
}

// Configure sizes the cache for a batch of total records and unlocks it
// for insertion. One extra slot is reserved for the working-tree revision.
func (c *RevisionsCache) Configure(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Debug("configuring the cache", slog.Int("elements", total))
	if len(c.commitsBySha) == 0 && total >= 0 {
		commits := make([]*git.CommitInfo, 1, total+1)
		c.commits = commits
	}
	c.locked = false
}

// InsertCommit stores one revision under its sequence index. Inserts are
// rejected while the cache is locked; a hash already present keeps its
// first record.
func (c *RevisionsCache) InsertCommit(rev git.CommitInfo, orderIdx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		slog.Warn("the cache is currently locked")
		return
	}
	if _, ok := c.commitsBySha[rev.Sha]; ok {
		slog.Info("commit already in the cache", slog.String("sha", rev.Sha))
		return
	}
	commit := &rev
	if orderIdx >= len(c.commits) {
		c.commits = append(c.commits, commit)
	} else {
		c.commits[orderIdx] = commit
	}
	c.commitsBySha[rev.Sha] = commit
}

// UpdateWipCommit replaces row 0 with the synthetic working-tree revision
// and stores the raw diff-index blobs as given.
func (c *RevisionsCache) UpdateWipCommit(parentSha, diffIndex, diffIndexCached string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Debug("updating the WIP commit", slog.String("parent", parentSha))

	c.wipDiffIndex = diffIndex
	c.wipDiffIndexCached = diffIndexCached

	if c.locked {
		return
	}

	shortLog := "No local changes"
	if diffIndex != "" || diffIndexCached != "" {
		shortLog = "Local changes"
	}
	var parents []string
	if parentSha != "" {
		parents = []string{parentSha}
	}
	wip := &git.CommitInfo{
		Sha:        git.ZeroSha,
		Parents:    parents,
		Author:     "-",
		Committer:  "-",
		AuthorDate: time.Now().Unix(),
		ShortLog:   shortLog,
	}
	c.commits[0] = wip
	c.commitsBySha[git.ZeroSha] = wip
}

// Count returns the number of rows in the cache, the working-tree slot
// included.
func (c *RevisionsCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.commits)
}

func (c *RevisionsCache) Commit(sha string) (git.CommitInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	commit, ok := c.commitsBySha[sha]
	if !ok {
		return git.CommitInfo{}, false
	}
	return *commit, true
}

func (c *RevisionsCache) CommitByRow(row int) (git.CommitInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if row < 0 || row >= len(c.commits) || c.commits[row] == nil {
		return git.CommitInfo{}, false
	}
	return *c.commits[row], true
}

// CommitPos returns the row of sha, or -1 when not cached.
func (c *RevisionsCache) CommitPos(sha string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	commit, ok := c.commitsBySha[sha]
	if !ok {
		return -1
	}
	for i, candidate := range c.commits {
		if candidate == commit {
			return i
		}
	}
	return -1
}

func (c *RevisionsCache) InsertReference(sha string, refType git.RefType, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Debug("adding a new reference",
		slog.String("sha", sha),
		slog.String("type", refType.String()),
		slog.String("name", name),
	)
	byName := c.references[refType]
	if byName == nil {
		byName = make(map[string]string)
		c.references[refType] = byName
	}
	byName[name] = sha
}

// References returns the cached references of one type, sorted by name.
func (c *RevisionsCache) References(refType git.RefType) []git.Reference {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byName := c.references[refType]
	refs := make([]git.Reference, 0, len(byName))
	for name, sha := range byName {
		refs = append(refs, git.Reference{Sha: sha, Type: refType, Name: name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

// CommitForBranch returns the hash a local or remote branch points at.
func (c *RevisionsCache) CommitForBranch(branch string, local bool) (string, bool) {
	refType := git.RefTypeLocalBranch
	if !local {
		refType = git.RefTypeRemoteBranch
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	sha, ok := c.references[refType][branch]
	return sha, ok
}

func (c *RevisionsCache) InsertLocalBranchDistances(name string, distances git.LocalBranchDistances) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distances[name] = distances
}

// LocalBranchDistances returns the divergence metrics for a branch; a
// branch without metrics yields the zero value.
func (c *RevisionsCache) LocalBranchDistances(name string) git.LocalBranchDistances {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.distances[name]
}

func (c *RevisionsCache) SetUntrackedFiles(files []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.untracked = make([]string, len(files))
	copy(c.untracked, files)
}

func (c *RevisionsCache) UntrackedFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	files := make([]string, len(c.untracked))
	copy(files, c.untracked)
	return files
}

// WipDiffs returns the raw unstaged and staged diff-index blobs of the
// last cycle, unparsed.
func (c *RevisionsCache) WipDiffs() (diffIndex, diffIndexCached string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wipDiffIndex, c.wipDiffIndexCached
}

// PendingLocalChanges reports whether the working tree or the index
// diverge from HEAD. Untracked files alone do not count.
func (c *RevisionsCache) PendingLocalChanges() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wipDiffIndex != "" || c.wipDiffIndexCached != ""
}
