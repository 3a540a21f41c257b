package kestrel

// Go has no compiler-generated async/await state machine, so a task
// body that needs to sequence more than one await runs on its own goroutine,
// bridged back onto the single polling goroutine by a trampoline
// Future. Exactly one side runs at any instant: the body goroutine
// blocks on a channel send/receive for the whole time its Poll is
// resuming it, and Poll blocks waiting for the body's next move for
// the whole time the body is doing synchronous work. The reactor and
// ready queue are therefore still only ever touched from the single
// goroutine driving BlockOn, preserving the cooperative,
// non-preemptive scheduling the rest of this package assumes.

// Async is the handle a Go body uses to await other futures.
type Async struct {
	reqCh    chan *awaitRequest
	resultCh chan any
}

// awaitRequest type-erases a Future[T] so it can travel over a single
// channel regardless of T.
type awaitRequest struct {
	poll func(w *Waker) (any, bool)
}

// Await suspends the calling Go body until f resolves, returning its
// value. It must only be called with the *Async passed into the body,
// and only from that body's own goroutine.
func Await[T any](a *Async, f Future[T]) T {
	req := &awaitRequest{
		poll: func(w *Waker) (any, bool) {
			return f.Poll(w)
		},
	}
	a.reqCh <- req
	v := <-a.resultCh
	return v.(T)
}

// goResult carries a Go body's outcome back to the trampoline,
// including a recovered panic value if the body panicked. A
// goroutine's panic can only be recovered on that same goroutine, so
// run recovers it here and Poll re-raises it on the executor
// goroutine, where Task.poll's own recover turns it into a PanicError.
type goResult[T any] struct {
	value    T
	panicked bool
	panicVal any
}

// goTask is the trampoline Future returned by Go.
type goTask[T any] struct {
	fn       func(a *Async) T
	reqCh    chan *awaitRequest
	resultCh chan any
	doneCh   chan goResult[T]
	started  bool
	pending  *awaitRequest
	resolved bool
	result   T
}

// Go returns a Future[T] that runs fn on a dedicated goroutine,
// letting it sequence any number of Await calls as if it were a
// single synchronous function.
func Go[T any](fn func(a *Async) T) Future[T] {
	return &goTask[T]{
		fn:       fn,
		reqCh:    make(chan *awaitRequest),
		resultCh: make(chan any),
		doneCh:   make(chan goResult[T], 1),
	}
}

// run executes fn on its own goroutine. It re-publishes the context
// frame captured from the goroutine that first polled this future, so
// that Spawn and other direct (non-Await) context-dependent calls made
// straight from the body — not routed through Await's channel
// handoff — still find a valid ready queue, reactor, and feature set
// keyed to this new goroutine's own id.
func (g *goTask[T]) run(frame ctxFrame) {
	a := &Async{reqCh: g.reqCh, resultCh: g.resultCh}
	var res goResult[T]
	enterContext(frame.queue, frame.reactor, frame.features, frame.logger, func() {
		defer func() {
			if r := recover(); r != nil {
				res.panicked = true
				res.panicVal = r
			}
		}()
		res.value = g.fn(a)
	})
	g.doneCh <- res
}

// Poll implements Future[T]. See the comment at the top of this file
// for the handoff protocol.
func (g *goTask[T]) Poll(w *Waker) (T, bool) {
	if g.resolved {
		return g.result, true
	}
	if !g.started {
		g.started = true
		frame, ok := currentFrame()
		if !ok {
			panic("kestrel: Go() future polled outside of a runtime context")
		}
		go g.run(frame)
	}

	if g.pending != nil {
		v, ok := g.pending.poll(w)
		if !ok {
			var zero T
			return zero, false
		}
		g.pending = nil
		g.resultCh <- v
	}

	select {
	case req := <-g.reqCh:
		g.pending = req
		return g.Poll(w)
	case res := <-g.doneCh:
		if res.panicked {
			panic(res.panicVal)
		}
		g.resolved = true
		g.result = res.value
		return g.result, true
	}
}
