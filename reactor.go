package kestrel

import (
	"sync"
	"time"
)

// pollEvent reports what became ready for one file descriptor.
type pollEvent struct {
	fd       int
	readable bool
	writable bool
	errored  bool
}

// poller is the platform-specific multiplexer the Reactor drives.
// reactor_kqueue.go (darwin) and reactor_epoll.go (linux) each provide
// one implementation.
type poller interface {
	init() error
	close() error
	registerRead(fd int) error
	registerWrite(fd int) error
	deregisterRead(fd int) error
	deregisterWrite(fd int) error
	// poll blocks for up to timeoutMs (negative means forever, 0 means
	// don't block) and appends ready events to dst, returning the
	// extended slice.
	poll(timeoutMs int, dst []pollEvent) ([]pollEvent, error)
}

// fdWakers holds the one-shot waker registered for each direction of a
// single fd. Registering a new waker for a direction silently replaces
// whatever was previously registered there: a future that re-registers
// interest each poll never observes a stale waker.
type fdWakers struct {
	read  *Waker
	write *Waker
}

// Reactor is the single-threaded, single-owner event source behind a
// Runtime's I/O and timer futures. It is driven exclusively from the
// goroutine inside BlockOn; RegisterRead/RegisterWrite/
// RegisterTimer may be called from the same goroutine (future Poll
// methods always run there), while Wake is safe from any goroutine.
type Reactor struct {
	mu      sync.Mutex
	p       poller
	fds     map[int]*fdWakers
	timers  *timerWheel
	wake    *wakeupSource
	pending []*Waker // harvested by pollEvents, drained by wakeReady
	eventBuf []pollEvent
	logger  Logger
}

// newReactor constructs and initializes a Reactor, opening the
// platform poller and the cross-goroutine wakeup source.
func newReactor(logger Logger) (*Reactor, error) {
	p := newPlatformPoller()
	if err := p.init(); err != nil {
		return nil, err
	}
	ws, err := newWakeupSource(p)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	return &Reactor{
		p:        p,
		fds:      make(map[int]*fdWakers),
		timers:   newTimerWheel(),
		wake:     ws,
		eventBuf: make([]pollEvent, 0, 64),
		logger:   logger,
	}, nil
}

// close releases the reactor's OS resources.
func (r *Reactor) close() error {
	r.wake.close()
	return r.p.close()
}

func (r *Reactor) entry(fd int) *fdWakers {
	e, ok := r.fds[fd]
	if !ok {
		e = &fdWakers{}
		r.fds[fd] = e
	}
	return e
}

// RegisterRead arms w to fire the next time fd becomes readable. It
// replaces any previously registered read waker for fd.
func (r *Reactor) RegisterRead(fd int, w *Waker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(fd)
	first := e.read == nil
	e.read = w
	if first {
		return r.p.registerRead(fd)
	}
	return nil
}

// RegisterWrite arms w to fire the next time fd becomes writable. It
// replaces any previously registered write waker for fd.
func (r *Reactor) RegisterWrite(fd int, w *Waker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(fd)
	first := e.write == nil
	e.write = w
	if first {
		return r.p.registerWrite(fd)
	}
	return nil
}

// DeregisterRead cancels interest in read-readiness for fd.
func (r *Reactor) DeregisterRead(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.fds[fd]; ok && e.read != nil {
		e.read = nil
		_ = r.p.deregisterRead(fd)
		r.gcFD(fd, e)
	}
}

// DeregisterWrite cancels interest in write-readiness for fd.
func (r *Reactor) DeregisterWrite(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.fds[fd]; ok && e.write != nil {
		e.write = nil
		_ = r.p.deregisterWrite(fd)
		r.gcFD(fd, e)
	}
}

func (r *Reactor) gcFD(fd int, e *fdWakers) {
	if e.read == nil && e.write == nil {
		delete(r.fds, fd)
	}
}

// RegisterTimer arms w to fire at deadline, returning an id usable
// with CancelTimer.
func (r *Reactor) RegisterTimer(deadline time.Time, w *Waker) timerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.schedule(deadline, w)
}

// CancelTimer cancels a still-pending timer registered with RegisterTimer.
func (r *Reactor) CancelTimer(id timerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers.cancel(id)
}

// Wake interrupts a blocked PollEvents call from any goroutine. Used
// when a Waker fires from outside the reactor's own poll (e.g. a
// completed goroutine calling JoinHandle wake-up, or an external
// signal) so the executor doesn't block past the moment there's new
// ready work.
func (r *Reactor) Wake() {
	r.wake.signal()
}

// PollEvents performs one non-blocking-or-bounded harvest: it polls
// the OS multiplexer (timeoutMs semantics as documented on poller.poll)
// and fires any expired timers, staging every woken Waker in an
// internal pending buffer without invoking them yet. A blocking wait
// (timeoutMs != 0) is cut short at the earliest pending timer deadline,
// since timers are not registered with the OS multiplexer. Call
// WakeReady afterward to actually run the wakers; the split exists so
// the executor can finish draining its own ready queue before handing
// control to wakers that might enqueue more work.
func (r *Reactor) PollEvents(timeoutMs int) error {
	r.mu.Lock()
	if d, ok := r.timers.nextDeadline(); ok && timeoutMs != 0 {
		ms := int((time.Until(d) + time.Millisecond - 1) / time.Millisecond)
		if ms < 0 {
			ms = 0
		}
		if timeoutMs < 0 || ms < timeoutMs {
			timeoutMs = ms
		}
	}
	r.eventBuf = r.eventBuf[:0]
	events, err := r.p.poll(timeoutMs, r.eventBuf)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.eventBuf = events

	for _, ev := range events {
		if ev.fd == r.wake.fd() {
			r.wake.drain()
			_ = r.p.registerRead(r.wake.fd())
			continue
		}
		e, ok := r.fds[ev.fd]
		if !ok {
			continue
		}
		if ev.readable && e.read != nil {
			r.pending = append(r.pending, e.read)
			e.read = nil
			_ = r.p.deregisterRead(ev.fd)
		}
		if ev.writable && e.write != nil {
			r.pending = append(r.pending, e.write)
			e.write = nil
			_ = r.p.deregisterWrite(ev.fd)
		}
		if ev.errored {
			if e.read != nil {
				r.pending = append(r.pending, e.read)
				e.read = nil
			}
			if e.write != nil {
				r.pending = append(r.pending, e.write)
				e.write = nil
			}
		}
		r.gcFD(ev.fd, e)
	}

	now := time.Now()
	for _, te := range r.timers.fireDue(now) {
		r.pending = append(r.pending, te.waker)
	}
	r.mu.Unlock()
	return nil
}

// WakeReady invokes and clears every Waker staged by the most recent
// PollEvents call.
func (r *Reactor) WakeReady() {
	r.mu.Lock()
	due := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, w := range due {
		w.Wake()
	}
}
