// Package watcher keeps the graph cache in step with the workspace. File
// changes are debounced, unchanged-content writes are filtered out, and each
// batch that really invalidates something bumps the analysis session so
// in-flight results computed against the old content get discarded.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/michaelzixizhou/codag-sub002/scanner"
	"github.com/michaelzixizhou/codag-sub002/session"
)

// Invalidator is the cache surface the watcher drives.
type Invalidator interface {
	InvalidateFile(path string)
	// HasChanged reports whether content differs from what the cached
	// fragment for path was computed against.
	HasChanged(path string, content []byte) bool
}

// Watcher watches a workspace recursively and invalidates cache entries for
// changed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *debouncer
	cache     Invalidator
	sessions  *session.Counter
	root      string
	ignore    *scanner.Ignore
	log       *logrus.Entry

	// onInvalidate, when set, receives each batch of invalidated paths
	// after the session bump. The pipeline uses it to schedule re-analysis.
	onInvalidate func(paths []string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet window.
func WithDebounce(interval time.Duration) Option {
	return func(w *Watcher) {
		w.debouncer = newDebouncer(interval)
	}
}

// WithInvalidateHook registers a callback invoked with each batch of
// invalidated paths.
func WithInvalidateHook(fn func(paths []string)) Option {
	return func(w *Watcher) {
		w.onInvalidate = fn
	}
}

// New builds a watcher over root. Subdirectories the scanner would prune
// are not registered.
func New(root string, cache Invalidator, sessions *session.Counter, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: newDebouncer(500 * time.Millisecond),
		cache:     cache,
		sessions:  sessions,
		root:      root,
		ignore:    scanner.NewIgnore(root, nil),
		log:       logrus.WithField("component", "watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addRecursive(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignore.SkipDir(path) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.log.WithError(watchErr).WithField("dir", path).Warn("failed to watch directory")
		}
		return nil
	})
}

// Run consumes raw events and applies debounced batches until ctx ends or
// the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error")
		case batch, ok := <-w.debouncer.output:
			if !ok {
				return
			}
			w.applyBatch(batch)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.ignore.SkipDir(path) {
				if err := w.fsWatcher.Add(path); err != nil {
					w.log.WithError(err).WithField("dir", path).Warn("failed to watch new directory")
				}
			}
			return
		}
	}
	if !scanner.IsCandidate(path) || w.ignore.Ignored(path, false) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.debouncer.add(path, ChangeRemove)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		w.debouncer.add(path, ChangeWrite)
	}
}

// applyBatch invalidates the cache for each real change. The session bumps
// once per batch, not per file, so a large save burst costs one restart.
// The bump happens before any invalidation: an in-flight commit started
// against the old session must fail its session check rather than re-insert
// a fragment for a file invalidated moments earlier.
func (w *Watcher) applyBatch(batch []Change) {
	var stale []string
	for _, change := range batch {
		if change.Kind == ChangeWrite {
			content, err := os.ReadFile(change.Path)
			if err == nil && !w.cache.HasChanged(change.Path, content) {
				continue
			}
		}
		stale = append(stale, change.Path)
	}
	if len(stale) == 0 {
		return
	}
	sort.Strings(stale)
	w.sessions.Bump()
	for _, path := range stale {
		w.cache.InvalidateFile(path)
	}
	w.log.WithField("files", len(stale)).Debug("cache invalidated")
	if w.onInvalidate != nil {
		w.onInvalidate(stale)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
