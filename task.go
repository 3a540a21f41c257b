package kestrel

import "sync"

// runnable is the type-erased handle the ready queue stores: every
// Task implements it regardless of its result type, letting the queue
// hold a heterogeneous mix of pending tasks.
type runnable interface {
	poll()
}

// Task owns a spawned computation: its future, its completion result,
// and the list of waiters blocked on a JoinHandle awaiting it.
type Task[T any] struct {
	mu      sync.Mutex
	future  Future[T]
	queue   *readyQueue
	reactor *Reactor
	feats   features
	logger  Logger

	waker   *Waker
	queued  bool // true while this task has itself on the ready queue

	done    bool
	value   T
	err     error // non-nil only for a recovered task-body panic
	waiters []*Waker
}

// Spawn schedules future to run concurrently with the caller, valid
// only from inside an active BlockOn (or from a task body
// running within one). It returns a JoinHandle for observing the
// result.
func Spawn[T any](future Future[T]) *JoinHandle[T] {
	frame, ok := currentFrame()
	if !ok {
		panic("kestrel: spawn() called outside of a runtime context")
	}
	t := &Task[T]{
		future:  future,
		queue:   frame.queue,
		reactor: frame.reactor,
		feats:   frame.features,
		logger:  currentLogger(),
	}
	t.waker = newWaker(func() { t.schedule() })
	t.schedule()
	return &JoinHandle[T]{task: t}
}

// schedule pushes the task onto its ready queue unless it is already
// queued or already complete; safe from any goroutine, since a Waker
// may fire from wherever the event that satisfied it was observed.
func (t *Task[T]) schedule() {
	t.mu.Lock()
	if t.done || t.queued {
		t.mu.Unlock()
		return
	}
	t.queued = true
	t.mu.Unlock()

	t.queue.push(t)
	if t.reactor != nil {
		t.reactor.Wake()
	}
}

// poll implements runnable. It re-enters the task's own context (its
// ready queue, reactor, and feature flags) for the duration of the
// poll, so spawn/sleep/I/O called from inside the task body finds the
// right runtime — this is how a task spawned from another task
// inherits its ancestor's runtime rather than needing it threaded
// explicitly.
func (t *Task[T]) poll() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.queued = false
	t.mu.Unlock()

	var (
		value T
		ready bool
		panicVal any
		panicked bool
	)

	enterContext(t.queue, t.reactor, t.feats, t.logger, func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				panicVal = r
			}
		}()
		value, ready = t.future.Poll(t.waker)
	})

	if !ready && !panicked {
		return
	}

	t.mu.Lock()
	t.done = true
	if panicked {
		t.err = PanicError{Value: panicVal}
		if t.logger != nil && t.logger.IsEnabled(LevelError) {
			t.logger.Log(LogEntry{Level: LevelError, Category: "task", Message: "task panicked", Err: t.err})
		}
	} else {
		t.value = value
	}
	waiters := t.waiters
	t.waiters = nil
	t.mu.Unlock()

	for _, w := range waiters {
		w.Wake()
	}
}

// JoinHandle observes the result of a spawned Task. It implements
// Future[T] so it can itself be awaited.
type JoinHandle[T any] struct {
	task *Task[T]
}

// Poll implements Future[T]: if the task has already completed, it
// resolves immediately (with the zero value if the task panicked);
// otherwise it registers w as a waiter and reports not-ready.
func (h *JoinHandle[T]) Poll(w *Waker) (T, bool) {
	t := h.task
	t.mu.Lock()
	if t.done {
		v := t.value
		t.mu.Unlock()
		return v, true
	}
	t.waiters = append(t.waiters, w)
	t.mu.Unlock()
	var zero T
	return zero, false
}

// Err returns the panic a task body raised, wrapped as a PanicError,
// or nil if the task has not completed or completed normally.
func (h *JoinHandle[T]) Err() error {
	t := h.task
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// JoinSet collects a dynamic number of same-typed spawned tasks and
// awaits all of them together.
type JoinSet[T any] struct {
	handles []*JoinHandle[T]
}

// NewJoinSet returns an empty JoinSet.
func NewJoinSet[T any]() *JoinSet[T] {
	return &JoinSet[T]{}
}

// Push adds a JoinHandle to the set.
func (s *JoinSet[T]) Push(h *JoinHandle[T]) {
	s.handles = append(s.handles, h)
}

// Len reports how many handles are in the set.
func (s *JoinSet[T]) Len() int { return len(s.handles) }

// AwaitAll returns a Future that resolves once every handle in the set
// has resolved, with results in the order they were pushed. Intended
// to be driven via Await from inside a Go body.
func (s *JoinSet[T]) AwaitAll() Future[[]T] {
	return &joinAllFuture[T]{handles: s.handles}
}

type joinAllFuture[T any] struct {
	handles []*JoinHandle[T]
	results []T
	done    []bool
	started bool
}

func (f *joinAllFuture[T]) Poll(w *Waker) ([]T, bool) {
	if !f.started {
		f.started = true
		f.results = make([]T, len(f.handles))
		f.done = make([]bool, len(f.handles))
	}
	allDone := true
	for i, h := range f.handles {
		if f.done[i] {
			continue
		}
		v, ok := h.Poll(w)
		if ok {
			f.results[i] = v
			f.done[i] = true
		} else {
			allDone = false
		}
	}
	if !allDone {
		return nil, false
	}
	return f.results, true
}
