package fs

import (
	"strings"

	"golang.org/x/sys/unix"

	"github.com/corvusrt/kestrel"
)

// File is a non-blocking, reactor-driven file handle.
type File struct {
	fd int
}

// Close closes the file.
func (f *File) Close() error {
	return unix.Close(f.fd)
}

func validatePath(path string) error {
	if strings.IndexByte(path, 0) >= 0 {
		return &kestrel.InvalidInputError{Message: "kestrel/fs: path contains a null byte"}
	}
	return nil
}

type openFuture struct {
	path  string
	flags int
	mode  uint32
}

func (f *openFuture) Poll(_ *kestrel.Waker) (kestrel.Result[*File], bool) {
	// open(2) on a regular file never reports would-block; this
	// resolves on its first (and only) poll.
	kestrel.ReactorForFS() // enforces the filesystem feature gate
	if err := validatePath(f.path); err != nil {
		return kestrel.Result[*File]{Err: err}, true
	}
	fd, err := unix.Open(f.path, f.flags|unix.O_CLOEXEC, f.mode)
	if err != nil {
		return kestrel.Result[*File]{Err: err}, true
	}
	return kestrel.Result[*File]{Value: &File{fd: fd}}, true
}

// Open opens an existing file read-only.
func Open(path string) kestrel.Future[kestrel.Result[*File]] {
	return &openFuture{path: path, flags: unix.O_RDONLY}
}

// Create creates (or truncates) path for writing.
func Create(path string) kestrel.Future[kestrel.Result[*File]] {
	return &openFuture{path: path, flags: unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC, mode: 0o644}
}

// OpenWithFlags opens path with caller-supplied OS flags and mode.
func OpenWithFlags(path string, flags int, mode uint32) kestrel.Future[kestrel.Result[*File]] {
	return &openFuture{path: path, flags: flags, mode: mode}
}

// Read returns a future that reads into buf.
func (f *File) Read(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &ioFuture[int]{
		fd: f.fd,
		attempt: func() (kestrel.Result[int], bool) {
			n, err := unix.Read(f.fd, buf)
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

// Write returns a future that writes from buf.
func (f *File) Write(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &ioFuture[int]{
		fd:    f.fd,
		write: true,
		attempt: func() (kestrel.Result[int], bool) {
			n, err := unix.Write(f.fd, buf)
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

type writeAllFuture struct {
	file    *File
	buf     []byte
	written int
	inner   kestrel.Future[kestrel.Result[int]]
}

func (wf *writeAllFuture) Poll(w *kestrel.Waker) (kestrel.Result[int], bool) {
	for {
		if wf.written >= len(wf.buf) {
			return kestrel.Result[int]{Value: wf.written}, true
		}
		if wf.inner == nil {
			wf.inner = wf.file.Write(wf.buf[wf.written:])
		}
		res, ok := wf.inner.Poll(w)
		if !ok {
			return kestrel.Result[int]{}, false
		}
		wf.inner = nil
		if res.Err != nil {
			return kestrel.Result[int]{Value: wf.written, Err: res.Err}, true
		}
		if res.Value == 0 {
			return kestrel.Result[int]{Value: wf.written, Err: kestrel.ErrWriteZero}, true
		}
		wf.written += res.Value
	}
}

// WriteAll returns a future that writes the entirety of buf.
func (f *File) WriteAll(buf []byte) kestrel.Future[kestrel.Result[int]] {
	return &writeAllFuture{file: f, buf: buf}
}
