package backend

import "context"

// Future is the result of an asynchronous backend request.
//
// The request runs on its own goroutine as soon as the future is created.
// The result is delivered exactly once; Await may be called any number of
// times after completion.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn on a new goroutine and returns its future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done returns a channel closed when the request has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the request completes or ctx is done.
// When ctx ends first it returns ctx.Err(); the request keeps running and its
// result can still be reclaimed with Abandon.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Abandon arranges for release to be called on a successful result once the
// request completes, followed by each cleanup in order. It is used after Await
// gave up on a cancelled context so that late results are not leaked and the
// objects the request depends on outlive it.
func (f *Future[T]) Abandon(release func(T), cleanup ...func()) {
	go func() {
		<-f.done
		if f.err == nil && release != nil {
			release(f.value)
		}
		for _, fn := range cleanup {
			fn()
		}
	}()
}
