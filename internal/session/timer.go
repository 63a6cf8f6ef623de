package session

import (
	"sync"
	"time"
)

// Timer schedules the per-second countdown of the active question.
type Timer interface {
	// Start begins calling tick once per interval. Starting a running timer is a no-op.
	Start(tick func())
	// Stop cancels the countdown. Stopping a stopped timer is a no-op.
	Stop()
	Running() bool
}

// TickerTimer is the wall-clock Timer.
type TickerTimer struct {
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
}

// NewTickerTimer builds a timer firing every interval (one second when interval <= 0).
func NewTickerTimer(interval time.Duration) *TickerTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickerTimer{interval: interval}
}

func (t *TickerTimer) Start(tick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return
	}

	done := make(chan struct{})
	t.done = done
	ticker := time.NewTicker(t.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}

func (t *TickerTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return
	}
	close(t.done)
	t.done = nil
}

func (t *TickerTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}
