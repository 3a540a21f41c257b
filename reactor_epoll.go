//go:build linux

package kestrel

import (
	"golang.org/x/sys/unix"
)

// epollPoller is the linux poller implementation, grounded on the
// eventloop package's own epoll-backed FastPoller. Unlike kqueue,
// epoll has one registration per fd covering both directions, so this
// poller tracks each fd's current interest mask itself and issues
// ADD/MOD/DEL as that mask changes. EPOLLONESHOT gives the same
// fire-once semantics RegisterRead/RegisterWrite expect.
type epollPoller struct {
	epfd     int
	masks    map[int]uint32
	eventBuf []unix.EpollEvent
}

func newPlatformPoller() poller {
	return &epollPoller{
		masks:    make(map[int]uint32),
		eventBuf: make([]unix.EpollEvent, 256),
	}
}

func (p *epollPoller) init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	return nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

func (p *epollPoller) setMask(fd int, mask uint32) error {
	_, exists := p.masks[fd]
	if mask == 0 {
		if !exists {
			return nil
		}
		delete(p.masks, fd)
		return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	ev := &unix.EpollEvent{Events: mask | unix.EPOLLONESHOT, Fd: int32(fd)}
	p.masks[fd] = mask
	if !exists {
		err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
		if err == unix.EEXIST {
			// A fired EPOLLONESHOT registration stays in the interest
			// set, disarmed; MOD re-arms it.
			return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
		}
		return err
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) registerRead(fd int) error {
	return p.setMask(fd, p.masks[fd]|unix.EPOLLIN)
}

func (p *epollPoller) registerWrite(fd int) error {
	return p.setMask(fd, p.masks[fd]|unix.EPOLLOUT)
}

func (p *epollPoller) deregisterRead(fd int) error {
	return p.setMask(fd, p.masks[fd]&^uint32(unix.EPOLLIN))
}

func (p *epollPoller) deregisterWrite(fd int) error {
	return p.setMask(fd, p.masks[fd]&^uint32(unix.EPOLLOUT))
}

func (p *epollPoller) poll(timeoutMs int, dst []pollEvent) ([]pollEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}

	for i := 0; i < n; i++ {
		raw := &p.eventBuf[i]
		fd := int(raw.Fd)
		ev := pollEvent{fd: fd}
		if raw.Events&unix.EPOLLIN != 0 {
			ev.readable = true
		}
		if raw.Events&unix.EPOLLOUT != 0 {
			ev.writable = true
		}
		if raw.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			ev.errored = true
		}
		// EPOLLONESHOT disarms the fd in the kernel; drop our mask so
		// the next registerRead/registerWrite re-arms from scratch.
		delete(p.masks, fd)
		dst = append(dst, ev)
	}
	return dst, nil
}
