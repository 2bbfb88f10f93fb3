package watcher

import (
	"sync"
	"time"
)

// ChangeKind classifies what happened to a watched file.
type ChangeKind int

const (
	ChangeWrite ChangeKind = iota
	ChangeRemove
)

// Change is one coalesced file event.
type Change struct {
	Path string
	Kind ChangeKind
}

// debouncer coalesces bursts of file events into batches. Saving a file
// typically fires several events in quick succession; only the last one per
// path within the quiet window survives.
type debouncer struct {
	interval time.Duration
	pending  map[string]Change
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []Change
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		pending:  make(map[string]Change),
		output:   make(chan []Change, 16),
	}
}

func (d *debouncer) add(path string, kind ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = Change{Path: path, Kind: kind}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return
	}
	batch := make([]Change, 0, len(d.pending))
	for _, change := range d.pending {
		batch = append(batch, change)
	}
	d.pending = make(map[string]Change)
	d.output <- batch
}
