package orchestrate

import "sync"

// Rerunner serializes re-analysis runs triggered by file events. Trigger
// returns immediately; at most one run executes at a time, and triggers that
// arrive while a run is in flight coalesce into a single follow-up run.
type Rerunner struct {
	mu      sync.Mutex
	running bool
	pending bool
	run     func()
}

func NewRerunner(run func()) *Rerunner {
	return &Rerunner{run: run}
}

// Trigger requests a run. The caller is never blocked on the run itself.
func (r *Rerunner) Trigger() {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()
	go r.loop()
}

func (r *Rerunner) loop() {
	for {
		r.run()
		r.mu.Lock()
		if !r.pending {
			r.running = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}
