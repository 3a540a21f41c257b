//go:build darwin || linux

package kestrel

import (
	"golang.org/x/sys/unix"
)

// wakeupSource is the self-pipe used to interrupt a blocked poll call
// from a goroutine other than the one driving the reactor — e.g. a
// task running on its own goroutine via Async/Go that needs the
// executor to stop blocking and notice newly queued work.
type wakeupSource struct {
	readFD  int
	writeFD int
}

func newWakeupSource(p poller) (*wakeupSource, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	ws := &wakeupSource{readFD: fds[0], writeFD: fds[1]}
	if err := p.registerRead(ws.readFD); err != nil {
		_ = unix.Close(ws.readFD)
		_ = unix.Close(ws.writeFD)
		return nil, err
	}
	return ws, nil
}

func (w *wakeupSource) fd() int { return w.readFD }

// signal writes a single byte to the pipe, waking a blocked poll.
// Safe from any goroutine; EAGAIN (pipe buffer already full of
// undrained bytes) is expected and ignored, since one byte is all a
// consumer needs to know it should re-check for work.
func (w *wakeupSource) signal() {
	var b [1]byte
	_, _ = unix.Write(w.writeFD, b[:])
}

// drain empties the pipe after a readability notification.
func (w *wakeupSource) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(w.readFD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (w *wakeupSource) close() {
	_ = unix.Close(w.readFD)
	_ = unix.Close(w.writeFD)
}
