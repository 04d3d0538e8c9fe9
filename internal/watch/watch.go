// Package watch triggers repository reloads when the on-disk state
// changes.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the debounce window between the last filesystem event
// and the reload callback.
const DefaultDelay = 350 * time.Millisecond

// Watcher observes a repository and invokes a callback after changes have
// settled. Bursts of events collapse into a single callback invocation.
type Watcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	fn      func()
	done    chan struct{}
}

// New starts watching the repository at root. The .git directory is
// preferred when present so that reference and index updates are seen even
// when the worktree is untouched.
func New(root string, delay time.Duration, fn func()) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	path := watchPath(root)
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	slog.Debug("watching repository", slog.String("path", path))

	w := &Watcher{
		watcher: fsw,
		delay:   delay,
		fn:      fn,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher. A pending debounced callback is dropped.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	// The timer is the debounce: every relevant event re-arms it, and only
	// its expiry fires the callback.
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.delay)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		case <-timer.C:
			w.fn()
		}
	}
}

func watchPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return gitDir
	}
	return root
}

// shouldIgnore filters transient files git writes while running commands.
func shouldIgnore(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
