package kestrel

import "time"

// Future is a lazily polled computation. Poll is called by the
// executor (or, transitively, by another future composing this one);
// it must do no blocking I/O and no sleeping — only cheap, synchronous
// work plus, when not yet ready, registering w with whatever will
// eventually make progress possible (a reactor fd, a timer, a join
// waiter list).
//
// Poll returns (zero value, false) for "not ready yet" and (value,
// true) once resolved. A future must not be polled again after it has
// returned true.
type Future[T any] interface {
	Poll(w *Waker) (T, bool)
}

// FutureFunc adapts a plain poll function to the Future interface.
type FutureFunc[T any] func(w *Waker) (T, bool)

// Poll implements Future.
func (f FutureFunc[T]) Poll(w *Waker) (T, bool) { return f(w) }

// Ready returns a Future that resolves immediately with v on its
// first poll, touching neither the reactor nor the ready queue.
func Ready[T any](v T) Future[T] {
	return FutureFunc[T](func(*Waker) (T, bool) {
		return v, true
	})
}

// Result pairs a value with an error, the shape Timeout resolves with
// so callers can distinguish "completed" from "timed out" without a
// second return channel.
type Result[T any] struct {
	Value T
	Err   error
}

// yieldFuture implements the two-poll yield_now() primitive: the
// first poll wakes itself by reference and reports not-ready, forcing
// exactly one trip through the ready queue; the second poll resolves.
type yieldFuture struct {
	yielded bool
}

func (f *yieldFuture) Poll(w *Waker) (struct{}, bool) {
	if !f.yielded {
		f.yielded = true
		w.Wake()
		return struct{}{}, false
	}
	return struct{}{}, true
}

// YieldNow returns a future that relinquishes the executor for
// exactly one scheduling cycle before resolving.
func YieldNow() Future[struct{}] {
	return &yieldFuture{}
}

// sleepFuture registers a one-shot reactor timer on its first poll and
// resolves once that timer fires.
type sleepFuture struct {
	deadline time.Time
	armed    bool
	timerID  timerID
	fired    bool
}

func (f *sleepFuture) Poll(w *Waker) (struct{}, bool) {
	if f.fired {
		return struct{}{}, true
	}
	if !time.Now().Before(f.deadline) {
		return struct{}{}, true
	}
	if !f.armed {
		f.armed = true
		f.timerID = currentReactorIO().RegisterTimer(f.deadline, newWaker(func() {
			f.fired = true
			w.Wake()
		}))
	}
	return struct{}{}, false
}

// Sleep returns a future that resolves after d has elapsed. A
// non-positive duration resolves on its first poll without touching
// the reactor.
func Sleep(d time.Duration) Future[struct{}] {
	if d <= 0 {
		return Ready(struct{}{})
	}
	return &sleepFuture{deadline: time.Now().Add(d)}
}

// timeoutFuture races an inner future against a deadline.
type timeoutFuture[T any] struct {
	inner    Future[T]
	deadline time.Time
	armed    bool
	timerID  timerID
	reactor  *Reactor
	timedOut bool
}

func (f *timeoutFuture[T]) Poll(w *Waker) (Result[T], bool) {
	if !time.Now().Before(f.deadline) {
		return Result[T]{Err: &TimeoutError{Message: "kestrel: operation timed out"}}, true
	}
	if v, ok := f.inner.Poll(w); ok {
		if f.armed {
			f.reactor.CancelTimer(f.timerID)
		}
		return Result[T]{Value: v}, true
	}
	if f.timedOut {
		var zero T
		return Result[T]{Value: zero, Err: &TimeoutError{Message: "kestrel: operation timed out"}}, true
	}
	if !f.armed {
		f.armed = true
		f.reactor = currentReactorIO()
		f.timerID = f.reactor.RegisterTimer(f.deadline, newWaker(func() {
			f.timedOut = true
			w.Wake()
		}))
	}
	return Result[T]{}, false
}

// Timeout wraps inner so that it resolves with a TimeoutError if d
// elapses before inner produces a value.
func Timeout[T any](d time.Duration, inner Future[T]) Future[Result[T]] {
	return &timeoutFuture[T]{inner: inner, deadline: time.Now().Add(d)}
}
