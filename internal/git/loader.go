package git

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LoadState is the lifecycle state of a RepoLoader. At most one load cycle
// is active at a time; a load requested while the state is not idle is
// rejected outright, never queued.
type LoadState uint8

const (
	StateIdle LoadState = iota
	StateLoading
	StateFinishing
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateFinishing:
		return "finishing"
	}
	return "unknown"
}

// RepoLoader drives the external git commands that populate a
// RevisionStore: root resolution, bulk history retrieval, working-tree
// synthesis and reference classification.
//
// Only the bulk log command runs asynchronously; everything else blocks
// its caller briefly. Run the load cycle off any latency-sensitive
// goroutine.
type RepoLoader struct {
	base     *GitBase
	store    RevisionStore
	branches *GitBranches

	mu        sync.Mutex
	state     LoadState
	cycle     uint64
	cycleID   string
	cancelFn  context.CancelFunc
	showAll   bool
	listeners []func(Event)
}

func NewRepoLoader(base *GitBase, store RevisionStore) *RepoLoader {
	return &RepoLoader{
		base:     base,
		store:    store,
		branches: NewGitBranches(base),
	}
}

// SetShowAll switches the bulk log command between --all and the current
// branch. Takes effect on the next load cycle.
func (l *RepoLoader) SetShowAll(all bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showAll = all
}

func (l *RepoLoader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// AddListener registers fn for load events. Listeners are called
// synchronously from the goroutine driving the cycle.
func (l *RepoLoader) AddListener(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *RepoLoader) emit(ev Event) {
	l.mu.Lock()
	listeners := make([]func(Event), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// LoadRepository starts one load cycle: it clears the store, resolves the
// true repository root, refreshes branch metadata and issues the bulk log
// command. It returns true when the cycle was accepted; the remainder of
// the cycle completes asynchronously and ends with a LoadFinished event.
func (l *RepoLoader) LoadRepository() bool {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		slog.Warn("git is currently loading data")
		return false
	}
	if l.base.WorkingDir() == "" {
		l.mu.Unlock()
		slog.Error("no working directory set")
		return false
	}
	l.cycle++
	cycle := l.cycle
	l.cycleID = uuid.NewString()
	cycleID := l.cycleID
	l.state = StateLoading
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelFn = cancel
	showAll := l.showAll
	l.mu.Unlock()

	slog.Info("initializing git", slog.String("cycle", cycleID))

	l.store.Clear()

	if !l.configureRepoDirectory(ctx) {
		slog.Error("the working directory is not a git repository",
			slog.String("dir", l.base.WorkingDir()),
			slog.String("cycle", cycleID),
		)
		l.finishCycle(cycle)
		return false
	}

	l.base.UpdateCurrentBranch(ctx)
	l.requestRevisions(ctx, cycle, cycleID, showAll)

	slog.Info("git init finished", slog.String("cycle", cycleID))
	return true
}

// Cancel aborts the in-flight load cycle, if any. The outstanding log
// command is terminated through its context; its eventual completion is
// discarded, so the loader returns to idle immediately instead of staying
// locked until the process dies.
func (l *RepoLoader) Cancel() {
	l.mu.Lock()
	if l.state == StateIdle {
		l.mu.Unlock()
		return
	}
	cancel := l.cancelFn
	l.cancelFn = nil
	l.state = StateIdle
	l.cycle++
	cycleID := l.cycleID
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	slog.Info("load cycle cancelled", slog.String("cycle", cycleID))
	l.emit(CancelRequested{})
}

// configureRepoDirectory resolves the true repository root from the
// candidate working directory. On failure the working directory is left
// unchanged.
func (l *RepoLoader) configureRepoDirectory(ctx context.Context) bool {
	slog.Debug("configuring repository directory")

	out, err := l.base.Run(ctx, "rev-parse", "--show-cdup")
	if err != nil {
		return false
	}
	offset := strings.TrimSpace(out)
	l.base.SetWorkingDir(filepath.Clean(filepath.Join(l.base.WorkingDir(), offset)))
	return true
}

func (l *RepoLoader) requestRevisions(ctx context.Context, cycle uint64, cycleID string, showAll bool) {
	slog.Debug("loading revisions", slog.String("cycle", cycleID))

	args := []string{
		"log", "--date-order", "--no-color", "--log-size",
		"--parents", "--boundary", "-z", "--pretty=format:" + logFormat,
	}
	if showAll {
		args = append(args, "--all")
	} else {
		args = append(args, l.base.CurrentBranch())
	}

	go func() {
		out, err := l.base.Run(ctx, args...)
		l.processRevisions(ctx, cycle, cycleID, []byte(out), err)
	}()
}

// processRevisions ingests one whole log buffer: it synthesizes the
// working-tree revision, decodes the NUL-separated commit tokens in order
// and inserts each into the store, then classifies references and fires
// the finished event.
func (l *RepoLoader) processRevisions(ctx context.Context, cycle uint64, cycleID string, buf []byte, err error) {
	l.mu.Lock()
	superseded := l.cycle != cycle || l.state != StateLoading
	l.mu.Unlock()
	if superseded {
		slog.Debug("discarding batch for a superseded cycle", slog.String("cycle", cycleID))
		return
	}

	if err != nil {
		slog.Error("bulk history retrieval failed",
			slog.Any("error", err),
			slog.String("cycle", cycleID),
		)
		if l.finishCycle(cycle) {
			l.emit(LoadFinished{})
		}
		return
	}

	tokens := bytes.Split(buf, []byte{'\000'})
	total := len(tokens)
	slog.Debug("processing revisions",
		slog.Int("count", total),
		slog.String("cycle", cycleID),
	)

	l.store.Configure(total)
	l.emit(LoadStarted{Total: total})

	slog.Debug("adding the WIP commit", slog.String("cycle", cycleID))
	l.updateWipRevision(ctx)

	count := 1
	for _, token := range tokens {
		rev, perr := parseCommitToken(token)
		if perr != nil {
			slog.Warn("malformed commit record, discarding the rest of the batch",
				slog.Int("index", count),
				slog.Any("error", perr),
				slog.String("cycle", cycleID),
			)
			break
		}
		l.store.InsertCommit(rev, count)
		l.emit(LoadStep{Index: count})
		count++
	}

	l.mu.Lock()
	if l.cycle != cycle {
		l.mu.Unlock()
		return
	}
	l.state = StateFinishing
	l.mu.Unlock()

	l.loadReferences(ctx)

	if l.finishCycle(cycle) {
		l.emit(LoadFinished{})
	}
}

// finishCycle transitions the loader back to idle. It reports false when
// the cycle was superseded by a cancel or a newer load in the meantime.
func (l *RepoLoader) finishCycle(cycle uint64) bool {
	l.mu.Lock()
	if l.cycle != cycle {
		l.mu.Unlock()
		return false
	}
	l.state = StateIdle
	cancel := l.cancelFn
	l.cancelFn = nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return true
}
