package engine

import (
	"sync"
	"time"
)

// FrameScheduler abstracts "request the next frame": implementations
// deliver repaint callbacks together with the delivery timestamp. Frame
// delivery is never assumed to be uniform; consumers must measure the
// actual interval between timestamps. Keeping the scheduler behind an
// interface lets tests drive the controller with synthetic timestamps
// instead of a real display loop.
type FrameScheduler interface {
	// Start begins delivering frames to fn. Calling Start twice is
	// undefined.
	Start(fn func(ts time.Time))

	// Stop cancels pending frame delivery. No callbacks run after Stop
	// returns, so tearing down a client cannot draw into a destroyed
	// surface.
	Stop()
}

// TickScheduler delivers frames from a wall-clock ticker.
type TickScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewTickScheduler creates a scheduler firing at the given interval.
// Intervals below one millisecond are raised to the ~60Hz default.
func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval < time.Millisecond {
		interval = time.Second / 60
	}
	return &TickScheduler{interval: interval}
}

// Start launches the delivery goroutine.
func (s *TickScheduler) Start(fn func(ts time.Time)) {
	s.mu.Lock()
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case ts := <-s.ticker.C:
				fn(ts)
			case <-s.done:
				return
			}
		}
	}()
}

// Stop halts delivery and waits for any in-flight callback to finish.
func (s *TickScheduler) Stop() {
	s.mu.Lock()
	if s.done == nil {
		s.mu.Unlock()
		return
	}
	close(s.done)
	s.ticker.Stop()
	s.done = nil
	s.mu.Unlock()

	s.wg.Wait()
}
