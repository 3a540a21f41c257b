// Package fs provides reactor-driven, non-blocking file primitives.
//
// Regular-file reads and writes essentially never report
// would-block on POSIX systems, but the IO-future protocol is applied
// uniformly anyway: every operation here is a Future, polled the same
// way a socket operation would be, so a file and a TCP stream are
// interchangeable from a task body's point of view.
package fs

import (
	"golang.org/x/sys/unix"

	"github.com/corvusrt/kestrel"
)

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
	reactor := kestrel.ReactorForFS()
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
