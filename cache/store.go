// Package cache owns the persisted per-file workflow fragments. The
// orchestrator writes whole per-file fragments atomically and reads back the
// merged union view; nothing else mutates the stored fragments.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/michaelzixizhou/codag-sub002/graph"
)

// Fragment is one file's contribution to the merged graph.
type Fragment struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Store keeps per-file graph fragments and produces the merged workflow
// view. Writes to different files commute; all methods are safe for
// concurrent use.
type Store struct {
	mu        sync.RWMutex
	fragments map[string]Fragment
	contents  map[string]uint64
	order     []string

	disk          FragmentStore
	flushInterval time.Duration
	dirty         map[string]bool
	timer         *time.Timer

	// flushMu serializes Flush passes; persisted holds the fingerprint of
	// each fragment last written to disk so unchanged fragments skip the
	// write.
	flushMu   sync.Mutex
	persisted map[string]uint64

	log *logrus.Entry
}

// FragmentStore persists per-file fragments. *DiskStore is the
// badger-backed implementation.
type FragmentStore interface {
	SaveFragment(path string, frag Fragment) error
	DeleteFragment(path string) error
	LoadAll() (map[string]Fragment, error)
}

// Option configures a Store.
type Option func(*Store)

// WithDiskStore attaches a persistent backing store. Fragment writes are
// flushed after a quiet interval so bursts of batch commits coalesce into
// one disk pass.
func WithDiskStore(disk FragmentStore, flushInterval time.Duration) Option {
	return func(s *Store) {
		s.disk = disk
		s.flushInterval = flushInterval
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		fragments: make(map[string]Fragment),
		contents:  make(map[string]uint64),
		dirty:     make(map[string]bool),
		persisted: make(map[string]uint64),
		log:       logrus.WithField("component", "cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm loads previously persisted fragments from the disk store.
func (s *Store) Warm() error {
	if s.disk == nil {
		return nil
	}
	loaded, err := s.disk.LoadAll()
	if err != nil {
		return err
	}
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(loaded))
	for path := range loaded {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		frag := loaded[path]
		s.insertLocked(path, frag)
		if fp, err := fragmentFingerprint(frag); err == nil {
			s.persisted[path] = fp
		}
	}
	s.log.WithField("files", len(paths)).Debug("warmed cache from disk")
	return nil
}

// SetAnalysisResult splits a batch's returned graph into per-file fragments
// and stores them, replacing any previous fragment for those files. Nodes
// belong to their source file; edges follow their source node. Nodes without
// a usable source are assigned to the batch's first path for stability.
func (s *Store) SetAnalysisResult(result graph.Workflow, fileContent map[string]string) {
	paths := make([]string, 0, len(fileContent))
	for path := range fileContent {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return
	}
	defaultOwner := paths[0]
	inBatch := make(map[string]bool, len(paths))
	for _, path := range paths {
		inBatch[path] = true
	}

	split := make(map[string]*Fragment, len(paths))
	for _, path := range paths {
		split[path] = &Fragment{}
	}
	ownerOf := make(map[string]string, len(result.Nodes))
	for _, node := range result.Nodes {
		owner := defaultOwner
		if node.Source != nil && inBatch[node.Source.File] {
			owner = node.Source.File
		}
		ownerOf[node.ID] = owner
		split[owner].Nodes = append(split[owner].Nodes, node)
	}
	for _, edge := range result.Edges {
		owner, ok := ownerOf[edge.Source]
		if !ok {
			owner = defaultOwner
		}
		split[owner].Edges = append(split[owner].Edges, edge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range paths {
		s.insertLocked(path, *split[path])
		s.contents[path] = xxh3.HashString(fileContent[path])
		s.markDirtyLocked(path)
	}
}

func (s *Store) insertLocked(path string, frag Fragment) {
	if _, exists := s.fragments[path]; !exists {
		s.order = append(s.order, path)
	}
	s.fragments[path] = frag
}

// MergedGraph returns the union of all currently cached per-file fragments,
// or of the given paths only. Nodes are deduplicated by ID, first write
// wins; edges with a missing endpoint are pruned.
func (s *Store) MergedGraph(filterPaths ...string) graph.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := s.order
	if len(filterPaths) > 0 {
		paths = filterPaths
	}

	merged := graph.Workflow{}
	for _, path := range paths {
		frag, ok := s.fragments[path]
		if !ok {
			continue
		}
		merged = graph.Union(merged, graph.Workflow{Nodes: frag.Nodes, Edges: frag.Edges})
	}
	return pruneDanglingEdges(merged)
}

func pruneDanglingEdges(w graph.Workflow) graph.Workflow {
	nodeIDs := make(map[string]bool, len(w.Nodes))
	for _, node := range w.Nodes {
		nodeIDs[node.ID] = true
	}
	var edges []graph.Edge
	for _, edge := range w.Edges {
		if nodeIDs[edge.Source] && nodeIDs[edge.Target] {
			edges = append(edges, edge)
		}
	}
	w.Edges = edges
	return w
}

// InvalidateFile removes one file's contribution from the store.
func (s *Store) InvalidateFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fragments[path]; !ok {
		return
	}
	delete(s.fragments, path)
	delete(s.contents, path)
	for i, p := range s.order {
		if p == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.markDirtyLocked(path)
}

// HasChanged reports whether content differs from what was last cached for
// path. Unknown paths always count as changed.
func (s *Store) HasChanged(path string, content []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.contents[path]
	if !ok {
		return true
	}
	return key != xxh3.Hash(content)
}

// CachedFiles returns the paths currently holding fragments, in insertion
// order.
func (s *Store) CachedFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

func (s *Store) markDirtyLocked(path string) {
	if s.disk == nil {
		return
	}
	s.dirty[path] = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.flushInterval, s.Flush)
}

// Flush writes all dirty fragments to the disk store. Invalidated paths are
// deleted from disk; a fragment whose fingerprint matches what disk already
// holds is skipped.
func (s *Store) Flush() {
	if s.disk == nil {
		return
	}
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	pending := make(map[string]*Fragment, len(s.dirty))
	for path := range s.dirty {
		if frag, ok := s.fragments[path]; ok {
			pending[path] = &frag
		} else {
			pending[path] = nil
		}
	}
	s.dirty = make(map[string]bool)
	s.mu.Unlock()

	for path, frag := range pending {
		if frag == nil {
			if err := s.disk.DeleteFragment(path); err != nil {
				s.log.WithField("file", path).WithError(err).Warn("cache flush failed")
				continue
			}
			delete(s.persisted, path)
			continue
		}
		fp, fpErr := fragmentFingerprint(*frag)
		if fpErr == nil {
			if last, ok := s.persisted[path]; ok && last == fp {
				continue
			}
		}
		if err := s.disk.SaveFragment(path, *frag); err != nil {
			s.log.WithField("file", path).WithError(err).Warn("cache flush failed")
			continue
		}
		if fpErr == nil {
			s.persisted[path] = fp
		}
	}
}

func fragmentFingerprint(frag Fragment) (uint64, error) {
	return graph.Fingerprint(graph.Workflow{Nodes: frag.Nodes, Edges: frag.Edges})
}
