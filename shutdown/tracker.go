// Package shutdown coordinates graceful shutdown: it stops accepting new
// summarizations, waits for the in-flight ones, then runs cleanup in
// priority order.
package shutdown

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrTrackerClosed is returned for work started after shutdown began.
	ErrTrackerClosed = errors.New("shutting down: no new summarizations accepted")

	// ErrWaitTimeout means summarizations were still running at the deadline.
	ErrWaitTimeout = errors.New("summarizations still running at shutdown deadline")
)

// Inflight counts running summarizations. idle is closed whenever the count
// is zero and replaced when work begins again.
type Inflight struct {
	mu     sync.Mutex
	n      int64
	closed bool
	idle   chan struct{}
}

func NewInflight() *Inflight {
	idle := make(chan struct{})
	close(idle)
	return &Inflight{idle: idle}
}

// Begin admits one summarization unless Close was called. Each true result
// must be paired with one End.
func (f *Inflight) Begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
	return true
}

func (f *Inflight) End() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return
	}
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

// Drain waits until nothing is running or timeout passes.
func (f *Inflight) Drain(timeout time.Duration) error {
	f.mu.Lock()
	idle := f.idle
	f.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-idle:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

// Close stops admitting work; running summarizations are unaffected.
func (f *Inflight) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *Inflight) Active() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func (f *Inflight) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
