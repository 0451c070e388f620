// Package future holds a result that is produced once, later, by another
// goroutine.
package future

import (
	"errors"
	"sync"
)

// ErrCancelled rejects futures whose work was abandoned before it ran.
var ErrCancelled = errors.New("cancelled")

// Future is settled exactly once, by Resolve or Reject. Await blocks until
// then; every caller sees the same outcome.
type Future[T any] struct {
	settled chan struct{}
	once    sync.Once
	value   T
	err     error
}

func Pending[T any]() *Future[T] {
	return &Future[T]{settled: make(chan struct{})}
}

func (f *Future[T]) Resolve(v T) { f.settle(v, nil) }

func (f *Future[T]) Reject(err error) {
	var zero T
	f.settle(zero, err)
}

func (f *Future[T]) Await() (T, error) {
	<-f.settled
	return f.value, f.err
}

// settle ignores every call after the first.
func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.settled)
	})
}
