package session

import "sync"

// ManualTimer is a Timer driven explicitly by Fire. It lets callers step the countdown without
// waiting on the wall clock.
type ManualTimer struct {
	mu     sync.Mutex
	tick   func()
	starts int
	stops  int
}

// NewManualTimer returns a stopped manual timer.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

func (t *ManualTimer) Start(tick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tick != nil {
		return
	}
	t.tick = tick
	t.starts++
}

func (t *ManualTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tick == nil {
		return
	}
	t.tick = nil
	t.stops++
}

func (t *ManualTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tick != nil
}

// Fire delivers n ticks while the timer is running and returns how many were delivered.
func (t *ManualTimer) Fire(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		t.mu.Lock()
		tick := t.tick
		t.mu.Unlock()

		if tick == nil {
			break
		}
		tick()
		fired++
	}
	return fired
}

// Starts counts Start calls that actually started the timer.
func (t *ManualTimer) Starts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starts
}

// Stops counts Stop calls that actually stopped the timer.
func (t *ManualTimer) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}
