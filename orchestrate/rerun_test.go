package orchestrate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerunner_TriggerReturnsWhileRunInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := NewRerunner(func() {
		started <- struct{}{}
		<-release
	})

	r.Trigger()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("run did not start")
	}

	// The run is blocked; a second trigger must still return immediately.
	done := make(chan struct{})
	go func() {
		r.Trigger()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger blocked on the in-flight run")
	}

	close(release)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("coalesced follow-up run did not start")
	}
}

func TestRerunner_CoalescesBurstsIntoOneFollowUp(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	started := make(chan struct{})
	release := make(chan struct{})
	r := NewRerunner(func() {
		mu.Lock()
		runs++
		mu.Unlock()
		started <- struct{}{}
		<-release
	})

	r.Trigger()
	<-started
	for i := 0; i < 5; i++ {
		r.Trigger()
	}
	release <- struct{}{}

	// Exactly one follow-up run for the whole burst.
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("follow-up run did not start")
	}
	release <- struct{}{}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 2
	}, time.Second, 10*time.Millisecond)

	// No further runs are pending.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 2, runs)
	mu.Unlock()
}

func TestRerunner_RunsAgainAfterCompletion(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	r := NewRerunner(func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})

	r.Trigger()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	}, time.Second, 5*time.Millisecond)

	r.Trigger()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 2
	}, time.Second, 5*time.Millisecond)
}
