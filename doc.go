// Package kestrel is a minimal, single-threaded, reactor-driven
// asynchronous runtime for lazily polled computations ("tasks").
//
// # Architecture
//
// A [Runtime] owns a [Reactor] (kqueue on Darwin, epoll on Linux), a
// ready queue of runnable tasks, and a timer heap. [BlockOn]
// drives a root [Future] to completion by alternately polling it,
// draining the ready queue, and harvesting reactor events, blocking
// inside the kernel notifier only when there is nothing left to do.
//
// Every non-blocking operation — accept, read, write, sleep, timeout —
// follows the same shape: attempt the syscall, and on EAGAIN register
// exactly one waker with the reactor keyed by (descriptor, direction)
// or by a timer id, then resolve when that waker fires.
//
// # Platform support
//
// I/O readiness notification uses the host's native facility:
//   - Darwin: kqueue
//   - Linux: epoll
//
// There is no completion-based (IOCP-style) variant; the model is
// readiness-based throughout.
//
// # Concurrency
//
// The executor is single-threaded and cooperative: task polling,
// reactor manipulation, and timer processing all happen on the
// goroutine that called [BlockOn]. Tasks progress only at
// explicit suspension points ([Await], [Sleep], [YieldNow],
// incomplete joins). The ready queue alone tolerates cross-goroutine
// pushes, since a [Waker] may be invoked from a foreign goroutine.
//
// # Usage
//
//	rt, err := kestrel.New(kestrel.WithIO())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Shutdown()
//
//	result := kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) int {
//	    set := kestrel.NewJoinSet[int]()
//	    for i := 0; i < 5; i++ {
//	        set.Push(kestrel.Spawn(kestrel.Ready(i)))
//	    }
//	    kestrel.Await(a, set.AwaitAll())
//	    return 42
//	}))
//
// # Error types
//
// The package provides a small error taxonomy distinguishing OS
// errors, [TimeoutError], [ErrWriteZero], and [PanicError] (a
// recovered task-body panic) from ordinary results. See errors.go.
package kestrel
