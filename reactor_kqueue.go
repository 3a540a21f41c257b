//go:build darwin

package kestrel

import (
	"golang.org/x/sys/unix"
)

// kqueuePoller is the darwin poller implementation, grounded on the
// eventloop package's own kqueue-backed FastPoller: one kqueue
// instance, EVFILT_READ/EVFILT_WRITE registered EV_ONESHOT so a fired
// interest is automatically dropped by the kernel. A later deregister
// of an already-dropped interest gets ENOENT, which is ignored.
type kqueuePoller struct {
	kq       int
	eventBuf []unix.Kevent_t
}

func newPlatformPoller() poller {
	return &kqueuePoller{eventBuf: make([]unix.Kevent_t, 256)}
}

func (p *kqueuePoller) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	return nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

func (p *kqueuePoller) change(fd int, filter int16, flags uint16) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueuePoller) registerRead(fd int) error {
	return p.change(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT)
}

func (p *kqueuePoller) registerWrite(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT)
}

func (p *kqueuePoller) deregisterRead(fd int) error {
	err := p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) deregisterWrite(fd int) error {
	err := p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) poll(timeoutMs int, dst []pollEvent) ([]pollEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}

	for i := 0; i < n; i++ {
		kev := &p.eventBuf[i]
		ev := pollEvent{fd: int(kev.Ident)}
		switch kev.Filter {
		case unix.EVFILT_READ:
			ev.readable = true
		case unix.EVFILT_WRITE:
			ev.writable = true
		}
		if kev.Flags&unix.EV_ERROR != 0 || kev.Flags&unix.EV_EOF != 0 {
			ev.errored = true
		}
		dst = append(dst, ev)
	}
	return dst, nil
}
