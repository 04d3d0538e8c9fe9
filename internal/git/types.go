package git

// ZeroSha identifies the synthetic working-tree revision that occupies
// row 0 of every load cycle.
const ZeroSha = "0000000000000000000000000000000000000000"

const shaLength = 40

// CommitInfo is one decoded unit of history.
type CommitInfo struct {
	Sha            string
	Parents        []string
	Committer      string
	CommitterEmail string
	Author         string
	AuthorEmail    string
	AuthorDate     int64
	ShortLog       string
	LongLog        string

	// Boundary is set for commits marked as boundary by the log command.
	Boundary bool
}

// IsMerge reports whether the commit has more than one parent.
func (c CommitInfo) IsMerge() bool {
	return len(c.Parents) > 1
}

// IsWip reports whether the commit is the synthetic working-tree revision.
func (c CommitInfo) IsWip() bool {
	return c.Sha == ZeroSha
}

type RefType uint8

const (
	RefTypeTag RefType = iota
	RefTypeLocalBranch
	RefTypeRemoteBranch
)

func (t RefType) String() string {
	switch t {
	case RefTypeTag:
		return "tag"
	case RefTypeLocalBranch:
		return "local branch"
	case RefTypeRemoteBranch:
		return "remote branch"
	}
	return "unknown"
}

// Reference is a named pointer into history.
type Reference struct {
	Sha  string
	Type RefType
	Name string // short name: main, origin/main, v1
}

// LocalBranchDistances carries ahead/behind commit counts of a local branch
// relative to the master-equivalent upstream and to its origin counterpart.
// All counts default to zero when a comparison fails.
type LocalBranchDistances struct {
	AheadMaster  int
	BehindMaster int
	AheadOrigin  int
	BehindOrigin int
}

// RevisionStore is the revision cache the loader populates. The loader is
// the sole writer during a load cycle; readers must wait for the finished
// event before touching the store.
//
// The default implementation lives in internal/cache, but the interface
// allows alternative implementations without changing the loader.
type RevisionStore interface {
	Clear()
	Configure(total int)
	InsertCommit(rev CommitInfo, orderIdx int)
	InsertReference(sha string, refType RefType, name string)
	InsertLocalBranchDistances(name string, distances LocalBranchDistances)
	UpdateWipCommit(parentSha, diffIndex, diffIndexCached string)
	SetUntrackedFiles(files []string)
}
