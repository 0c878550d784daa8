// Package shutdown coordinates an orderly exit: it turns SIGINT/SIGTERM into
// context cancellation, waits for the generation in flight, then runs the
// registered cleanup steps in priority order. A second signal exits at once.
package shutdown

import (
	"errors"
	"sync"
	"time"
)

// ErrShuttingDown is returned by Track once shutdown has begun.
var ErrShuttingDown = errors.New("shutdown: shutting down, operation rejected")

// ErrWaitTimeout is returned when in-flight operations outlive the timeout.
var ErrWaitTimeout = errors.New("shutdown: in-flight operations did not finish in time")

// tracker counts in-flight operations and refuses new ones once closed.
type tracker struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	active int
	closed bool
}

// start registers an operation. It returns false after close.
func (t *tracker) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	t.active++
	return true
}

func (t *tracker) done() {
	t.mu.Lock()
	t.active--
	t.mu.Unlock()
	t.wg.Done()
}

func (t *tracker) close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

func (t *tracker) activeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// wait blocks until every started operation is done or timeout passes.
func (t *tracker) wait(timeout time.Duration) error {
	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return ErrWaitTimeout
	}
}
