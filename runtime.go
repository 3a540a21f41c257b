package kestrel

import "time"

// graceDrainIterations and graceDrainPause bound the best-effort
// drain after the root future resolves: 10 iterations of a 1ms pause
// keep a handful of straggling fire-and-forget tasks under 100ms of
// total grace time while still giving the scheduler a chance to run
// them, a deliberately shorter pause than a naive 10ms-per-iteration
// reading of "small fixed number of iterations" would give.
const (
	graceDrainIterations = 10
	graceDrainPause      = time.Millisecond
)

// Runtime is the single-threaded executor: a ready queue, a reactor,
// and the feature flags fixed at construction.
type Runtime struct {
	queue   *readyQueue
	reactor *Reactor
	feats   features
	logger  Logger
	state   *FastState
}

// New constructs a Runtime. Without WithIO/WithFS, I/O and filesystem
// operations (including non-zero Sleep and Timeout) panic with a
// remediation hint when used inside BlockOn.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	reactor, err := newReactor(cfg.logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		queue:   newReadyQueue(),
		reactor: reactor,
		feats:   features{io: cfg.ioEnabled, fs: cfg.fsEnabled},
		logger:  cfg.logger,
		state:   NewFastState(),
	}, nil
}

// Shutdown releases the runtime's OS resources. It must not be called
// while a BlockOn call is in progress.
func (rt *Runtime) Shutdown() error {
	if !rt.state.TryTransition(StateIdle, StateTerminated) {
		return nil
	}
	return rt.reactor.close()
}

// BlockOn drives root to completion on the calling goroutine,
// implementing the executor loop: poll the root with a flag-setting
// waker, drain the ready queue, harvest reactor events non-blocking,
// and only block inside the reactor once there is genuinely nothing
// left to do.
func BlockOn[T any](rt *Runtime, root Future[T]) T {
	if !rt.state.TryTransition(StateIdle, StateRunning) {
		panic("kestrel: BlockOn called on a runtime that is already running or has been shut down")
	}
	defer rt.state.TryTransition(StateRunning, StateIdle)

	var result T

	enterContext(rt.queue, rt.reactor, rt.feats, rt.logger, func() {
		flagWaker, rootWoken := newFlagWaker()

		for {
			v, ok := root.Poll(flagWaker)
			if ok {
				result = v
				rt.graceDrain()
				return
			}

			drainReady(rt.queue)

			_ = rt.reactor.PollEvents(0)
			rt.reactor.WakeReady()

			if rootWoken() {
				continue
			}
			if rt.queue.len() > 0 {
				continue
			}

			if err := rt.reactor.PollEvents(-1); err != nil {
				if rt.logger.IsEnabled(LevelError) {
					rt.logger.Log(LogEntry{Level: LevelError, Category: "reactor", Message: "blocking poll failed", Err: err})
				}
				continue
			}
			rt.reactor.WakeReady()
		}
	})

	return result
}

// drainReady runs every runnable queued right now. A task's poll may
// append more tasks to the same queue; those are drained in this same
// call since drain repeatedly swaps out whatever is currently queued
// until the queue reports empty.
func drainReady(q *readyQueue) {
	for {
		jobs := q.drain()
		if len(jobs) == 0 {
			return
		}
		for _, r := range jobs {
			r.poll()
		}
	}
}

// graceDrain gives fire-and-forget tasks a short, bounded window to
// finish after the root future resolves. Anything still pending after
// the bound is simply abandoned.
func (rt *Runtime) graceDrain() {
	for i := 0; i < graceDrainIterations; i++ {
		drainReady(rt.queue)
		_ = rt.reactor.PollEvents(0)
		rt.reactor.WakeReady()
		if rt.queue.len() == 0 {
			return
		}
		time.Sleep(graceDrainPause)
	}
}
