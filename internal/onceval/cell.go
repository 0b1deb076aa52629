// Package onceval implements the single-fire lazy cell used both for a
// session's per-operation output handles and for networking rendezvous
// slots: exactly one writer resolves the
// cell, any number of readers may await it, and readers who arrive after
// resolution observe the value immediately without blocking.
package onceval

import (
	"context"
	"sync"
)

// Cell holds a single value of type T that is written at most once.
type Cell[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns a ready-to-use, unresolved Cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Resolve completes the cell with a value or an error. Only the first
// call has any effect; later calls are silently ignored, matching "a
// single-fire future-like cell that becomes ready exactly once."
func (c *Cell[T]) Resolve(val T, err error) {
	c.once.Do(func() {
		c.val = val
		c.err = err
		close(c.done)
	})
}

// Await blocks until the cell resolves or ctx is cancelled, whichever
// happens first. A context cancellation never resolves the cell itself;
// other readers may still await successfully afterwards.
func (c *Cell[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the cell has already resolved, without blocking.
func (c *Cell[T]) Ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
