package net

import (
	stdnet "net"

	"golang.org/x/sys/unix"

	"github.com/corvusrt/kestrel"
)

// TCPListener is a non-blocking, reactor-driven TCP listening socket.
type TCPListener struct {
	fd int
}

// Listen resolves addr (e.g. "127.0.0.1:0") with the standard
// library's address parser, then creates, binds, and listens on a
// non-blocking socket driven by the current context's reactor.
func Listen(addr string) (*TCPListener, error) {
	tcpAddr, err := stdnet.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &kestrel.InvalidInputError{Cause: err, Message: "kestrel/net: invalid listen address"}
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	var sa unix.SockaddrInet4
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	sa.Port = tcpAddr.Port

	if err := unix.Bind(fd, &sa); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &TCPListener{fd: fd}, nil
}

// LocalAddr returns the address the listener is bound to, via
// getsockname — useful for discovering the ephemeral port chosen for
// "127.0.0.1:0".
func (l *TCPListener) LocalAddr() (stdnet.Addr, error) {
	sa, err := unix.Getsockname(l.fd)
	if err != nil {
		return nil, err
	}
	return sockaddrToTCPAddr(sa), nil
}

// Close closes the listening socket.
func (l *TCPListener) Close() error {
	return unix.Close(l.fd)
}

// AcceptResult is what an Accept future resolves with: the accepted
// stream, already non-blocking, paired with the peer's address.
type AcceptResult struct {
	Stream *TCPStream
	Addr   stdnet.Addr
}

// Accept returns a future that resolves with the next inbound
// connection.
func (l *TCPListener) Accept() kestrel.Future[kestrel.Result[AcceptResult]] {
	return &ioFuture[AcceptResult]{
		fd: l.fd,
		attempt: func() (kestrel.Result[AcceptResult], bool) {
			clientFD, sa, err := unix.Accept(l.fd)
			if err != nil {
				if wouldBlock(err) {
					return kestrel.Result[AcceptResult]{}, true
				}
				return kestrel.Result[AcceptResult]{Err: err}, false
			}
			if err := unix.SetNonblock(clientFD, true); err != nil {
				_ = unix.Close(clientFD)
				return kestrel.Result[AcceptResult]{Err: err}, false
			}
			return kestrel.Result[AcceptResult]{Value: AcceptResult{
				Stream: &TCPStream{fd: clientFD},
				Addr:   sockaddrToTCPAddr(sa),
			}}, false
		},
	}
}

func sockaddrToTCPAddr(sa unix.Sockaddr) stdnet.Addr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return &stdnet.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	case *unix.SockaddrInet6:
		return &stdnet.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	default:
		return nil
	}
}
