package net

import (
	"golang.org/x/sys/unix"

	"github.com/corvusrt/kestrel"
)

// TCPStream is a non-blocking, reactor-driven TCP connection.
type TCPStream struct {
	fd int
}

// Close closes the connection.
func (s *TCPStream) Close() error {
	return unix.Close(s.fd)
}

// Read returns a future that reads into buf, resolving Ok(0) on
// end-of-stream and Ok(n) for n > 0 otherwise.
func (s *TCPStream) Read(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &ioFuture[int]{
		fd: s.fd,
		attempt: func() (kestrel.Result[int], bool) {
			n, err := unix.Read(s.fd, buf)
			if err != nil {
				if wouldBlock(err) {
					return kestrel.Result[int]{}, true
				}
				return kestrel.Result[int]{Err: err}, false
			}
			return kestrel.Result[int]{Value: n}, false
		},
	}
}

// Write returns a future that writes from buf, resolving Ok(n) with
// whatever the underlying write call reported, including n == 0.
func (s *TCPStream) Write(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &ioFuture[int]{
		fd:    s.fd,
		write: true,
		attempt: func() (kestrel.Result[int], bool) {
			n, err := unix.Write(s.fd, buf)
			if err != nil {
				if wouldBlock(err) {
					return kestrel.Result[int]{}, true
				}
				return kestrel.Result[int]{Err: err}, false
			}
			return kestrel.Result[int]{Value: n}, false
		},
	}
}

// writeAllFuture loops Write until buf is drained, failing with
// ErrWriteZero if an underlying write ever reports zero bytes written
// against a non-empty remaining buffer.
type writeAllFuture struct {
	stream   *TCPStream
	buf      []byte
	written  int
	inner    kestrel.Future[kestrel.Result[int]]
}

func (f *writeAllFuture) Poll(w *kestrel.Waker) (kestrel.Result[int], bool) {
	for {
		if f.written >= len(f.buf) {
			return kestrel.Result[int]{Value: f.written}, true
		}
		if f.inner == nil {
			f.inner = f.stream.Write(f.buf[f.written:])
		}
		res, ok := f.inner.Poll(w)
		if !ok {
			return kestrel.Result[int]{}, false
		}
		f.inner = nil
		if res.Err != nil {
			return kestrel.Result[int]{Value: f.written, Err: res.Err}, true
		}
		if res.Value == 0 {
			return kestrel.Result[int]{Value: f.written, Err: kestrel.ErrWriteZero}, true
		}
		f.written += res.Value
	}
}

// WriteAll returns a future that writes the entirety of buf.
func (s *TCPStream) WriteAll(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &writeAllFuture{stream: s, buf: buf}
}
