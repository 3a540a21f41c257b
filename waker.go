package kestrel

// Waker lets a pending Future signal that it should be polled again.
// It needs no manual clone/drop refcounting: Go's garbage collector
// keeps whatever the closure captures alive for exactly as long as the
// Waker itself is reachable.
type Waker struct {
	wake func()
}

// Wake schedules the associated task for another poll. It is safe to
// call from any goroutine, and safe to call more than once — only the
// first call after a task goes to sleep has any effect before the next
// poll observes it.
func (w *Waker) Wake() {
	if w == nil || w.wake == nil {
		return
	}
	w.wake()
}

// newWaker builds a Waker around an arbitrary wake function.
func newWaker(wake func()) *Waker {
	return &Waker{wake: wake}
}

// newFlagWaker builds a root Waker used by BlockOn to learn that the
// top-level future was woken since the last poll. Unlike a task
// Waker, it does not push onto the ready queue — BlockOn's own loop
// re-polls the root future directly once this flag is observed.
func newFlagWaker() (w *Waker, woken func() bool) {
	flag := &boolFlag{ch: make(chan struct{}, 1)}
	return newWaker(flag.set), flag.getAndClear
}

// boolFlag is a trivial cross-goroutine signal: many writers may call
// set concurrently with a single reader calling getAndClear.
type boolFlag struct {
	ch chan struct{}
}

func (f *boolFlag) set() {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

func (f *boolFlag) getAndClear() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}
