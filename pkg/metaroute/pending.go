package metaroute

import (
	"context"
)

// Awaitable is a result that may not be available yet. Handlers may return one
// in place of a value; the dispatcher awaits it before responding.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Pending is the result of work started with Async
type Pending struct {
	done  chan struct{}
	value any
	err   error
}

// Async runs fn on its own goroutine and returns its pending result.
// A panic in fn rejects the result instead of crashing the process.
func Async(fn func() (any, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if r := recover(); r != nil {
				p.err = panicError(r)
			}
		}()
		p.value, p.err = fn()
	}()
	return p
}

// Resolved returns a pending result that already holds v
func Resolved(v any) *Pending {
	p := &Pending{done: make(chan struct{}), value: v}
	close(p.done)
	return p
}

// Rejected returns a pending result that already failed with err
func Rejected(err error) *Pending {
	p := &Pending{done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// Await blocks until the result is available or ctx is done
func (p *Pending) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
