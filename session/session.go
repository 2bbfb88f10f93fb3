// Package session tracks analysis epochs. A session begins when an analysis
// run starts and advances whenever the cache is invalidated out-of-band; any
// in-flight result computed under an older session value is stale and must
// be discarded before it reaches the cache or the display.
package session

import "sync/atomic"

// Counter is a monotonically increasing session counter, safe for
// concurrent use.
type Counter struct {
	value atomic.Int64
}

// Current returns the live session value.
func (c *Counter) Current() int64 {
	return c.value.Load()
}

// Bump advances the session and returns the new value.
func (c *Counter) Bump() int64 {
	return c.value.Add(1)
}

// IsStale reports whether a result computed under start is stale relative to
// the live session value. The live value is read through the accessor so
// commit decisions always compare against the current epoch, not a value
// captured earlier.
func IsStale(start int64, live func() int64) bool {
	return live() != start
}
