// Package net provides reactor-driven, non-blocking TCP primitives.
//
// Sockets here are driven by the owning kestrel.Runtime's own reactor
// rather than the Go runtime's integrated netpoller, so listener and
// stream file descriptors must be created with golang.org/x/sys/unix
// directly instead of the standard library's net.Listen/net.Dial.
// Address parsing, which has nothing to do with readiness-driven
// polling, still goes through the standard library's net package.
package net

import (
	"golang.org/x/sys/unix"

	"github.com/corvusrt/kestrel"
)

// ioFuture implements the IO-future protocol shared by every future in
// this package: attempt the syscall non-blocking on every poll,
// register with the reactor on EAGAIN/EWOULDBLOCK, and retry fresh on
// wake. attempt returns (result, retry) — retry true means the
// syscall would-block and nothing else about result is meaningful.
type ioFuture[T any] struct {
	fd      int
	write   bool
	attempt func() (kestrel.Result[T], bool)
}

func (f *ioFuture[T]) Poll(w *kestrel.Waker) (kestrel.Result[T], bool) {
	res, retry := f.attempt()
	if !retry {
		return res, true
	}
	reactor := kestrel.ReactorForIO()
	if f.write {
		_ = reactor.RegisterWrite(f.fd, w)
	} else {
		_ = reactor.RegisterRead(f.fd, w)
	}
	return kestrel.Result[T]{}, false
}

func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
