package prompt

import (
	"context"
	"sync"
)

// Resolution is a single-assignment slot. The first Resolve wins and later ones are ignored.
type Resolution[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

func NewResolution[T any]() *Resolution[T] {
	return &Resolution[T]{done: make(chan struct{})}
}

// Resolve stores v unless the slot is already resolved, and reports whether v was stored.
func (r *Resolution[T]) Resolve(v T) bool {
	resolved := false
	r.once.Do(func() {
		r.value = v
		resolved = true
		close(r.done)
	})
	return resolved
}

func (r *Resolution[T]) Done() <-chan struct{} {
	return r.done
}

func (r *Resolution[T]) Value() (T, bool) {
	select {
	case <-r.done:
		return r.value, true
	default:
		var zero T
		return zero, false
	}
}

// Wait blocks until the slot is resolved or ctx is done.
func (r *Resolution[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, nil
	case <-ctx.Done():
		// a resolution racing the deadline still wins
		if v, ok := r.Value(); ok {
			return v, nil
		}
		var zero T
		return zero, ctx.Err()
	}
}
