package watcher

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelzixizhou/codag-sub002/session"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *debouncer, timeout time.Duration) []Change {
	t.Helper()
	select {
	case batch := <-d.output:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_CollapsesSamePath(t *testing.T) {
	d := newDebouncer(testInterval)

	d.add("agent.py", ChangeWrite)
	d.add("agent.py", ChangeRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	require.Len(t, batch, 1)
	assert.Equal(t, "agent.py", batch[0].Path)
	assert.Equal(t, ChangeRemove, batch[0].Kind)
}

func TestDebouncer_TimerResetKeepsOneBatch(t *testing.T) {
	d := newDebouncer(testInterval)

	d.add("agent.py", ChangeWrite)
	time.Sleep(testInterval / 2)
	d.add("graph.py", ChangeWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	require.Len(t, batch, 2)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	assert.Equal(t, "agent.py", batch[0].Path)
	assert.Equal(t, "graph.py", batch[1].Path)
}

type fakeCache struct {
	mu          sync.Mutex
	changed     map[string]bool
	invalidated []string
}

func (c *fakeCache) InvalidateFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, path)
}

func (c *fakeCache) HasChanged(path string, _ []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed[path]
}

func writeTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	return path
}

func testWatcher(cache Invalidator, sessions *session.Counter, hook func([]string)) *Watcher {
	return &Watcher{
		cache:        cache,
		sessions:     sessions,
		onInvalidate: hook,
		log:          logrus.WithField("component", "watcher"),
	}
}

func TestApplyBatch_InvalidatesAndBumpsOnce(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.py")
	b := writeTestFile(t, dir, "b.py")

	cache := &fakeCache{changed: map[string]bool{a: true, b: true}}
	sessions := &session.Counter{}
	var notified []string
	w := testWatcher(cache, sessions, func(paths []string) {
		notified = paths
	})

	w.applyBatch([]Change{{Path: a, Kind: ChangeWrite}, {Path: b, Kind: ChangeWrite}})

	assert.ElementsMatch(t, []string{a, b}, cache.invalidated)
	assert.Equal(t, int64(1), sessions.Current())
	assert.Equal(t, []string{a, b}, notified)
}

func TestApplyBatch_UnchangedContentSkipped(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.py")

	cache := &fakeCache{changed: map[string]bool{}}
	sessions := &session.Counter{}
	w := testWatcher(cache, sessions, nil)

	w.applyBatch([]Change{{Path: a, Kind: ChangeWrite}})

	assert.Empty(t, cache.invalidated)
	assert.Equal(t, int64(0), sessions.Current())
}

// sessionRecordingCache captures the session value observed at the moment of
// each invalidation.
type sessionRecordingCache struct {
	fakeCache
	sessions *session.Counter
	observed []int64
}

func (c *sessionRecordingCache) InvalidateFile(path string) {
	c.observed = append(c.observed, c.sessions.Current())
	c.fakeCache.InvalidateFile(path)
}

func TestApplyBatch_BumpsSessionBeforeInvalidating(t *testing.T) {
	sessions := &session.Counter{}
	cache := &sessionRecordingCache{
		fakeCache: fakeCache{changed: map[string]bool{}},
		sessions:  sessions,
	}
	w := testWatcher(cache, sessions, nil)

	w.applyBatch([]Change{
		{Path: "/ws/agent.py", Kind: ChangeRemove},
		{Path: "/ws/graph.py", Kind: ChangeRemove},
	})

	// A commit holding the pre-batch session token must already see the new
	// session by the time any file is invalidated.
	require.Len(t, cache.observed, 2)
	assert.Equal(t, []int64{1, 1}, cache.observed)
	assert.Equal(t, int64(1), sessions.Current())
}

func TestApplyBatch_RemoveAlwaysInvalidates(t *testing.T) {
	cache := &fakeCache{changed: map[string]bool{}}
	sessions := &session.Counter{}
	w := testWatcher(cache, sessions, nil)

	w.applyBatch([]Change{{Path: "/gone/agent.py", Kind: ChangeRemove}})

	assert.Equal(t, []string{"/gone/agent.py"}, cache.invalidated)
	assert.Equal(t, int64(1), sessions.Current())
}
