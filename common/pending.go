package common

import (
	"fmt"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Pending is the completion handle of work submitted to a worker pool. Setup code
// submits every independent task first and awaits the handles afterwards, which
// keeps the sequencing explicit while the pool runs the work concurrently.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Submit schedules fn on the pool and returns its completion handle.
// A panic inside fn is recovered and surfaced as the handle's error.
//
// Parameters:
//   - pool: the worker pool to run fn on
//   - id: the task ID reported to the pool
//   - fn: the work to run
//
// Returns:
//   - *Pending[T]: a handle whose Await blocks until fn has returned
func Submit[T any](pool worker.DynamicWorkerPool, id int, fn func() (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer close(p.done)
			defer func() {
				if r := recover(); r != nil {
					p.err = fmt.Errorf("task %d panicked: %v", id, r)
				}
			}()
			p.value, p.err = fn()
			return p.value, p.err
		},
	})
	return p
}

// Resolved returns an already completed handle.
func Resolved[T any](value T, err error) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{}), value: value, err: err}
	close(p.done)
	return p
}

// NewPending returns an unresolved handle for work the caller runs itself.
// Exactly one call to Resolve completes it.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Resolve completes a handle created by NewPending and wakes every waiter.
func (p *Pending[T]) Resolve(value T, err error) {
	p.value, p.err = value, err
	close(p.done)
}

// Await blocks until the work has finished and returns its result.
func (p *Pending[T]) Await() (T, error) {
	<-p.done
	return p.value, p.err
}

// Done reports whether the work has finished without blocking.
func (p *Pending[T]) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// AwaitAll waits for every handle and returns the results in submission order.
// All handles are awaited even when one fails; the first error in submission
// order is returned.
func AwaitAll[T any](pending []*Pending[T]) ([]T, error) {
	results := make([]T, len(pending))
	var firstErr error
	for i, p := range pending {
		v, err := p.Await()
		results[i] = v
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}
