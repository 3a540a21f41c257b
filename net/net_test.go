package net_test

import (
	"bytes"
	stdnet "net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusrt/kestrel"
	knet "github.com/corvusrt/kestrel/net"
)

// A foreign OS thread — an ordinary goroutine using the standard
// library's net package — connects to the runtime-managed listener.
// The runtime's own reactor never drives this side of the connection.
func dialAndExchange(t *testing.T, addrCh <-chan string, send []byte, recvLen int) []byte {
	t.Helper()
	conn, err := stdnet.Dial("tcp", <-addrCh)
	require.NoError(t, err)
	defer conn.Close()

	if len(send) > 0 {
		_, err = conn.Write(send)
		require.NoError(t, err)
	}

	buf := make([]byte, recvLen)
	got := 0
	for got < recvLen {
		n, err := conn.Read(buf[got:])
		require.NoError(t, err)
		got += n
	}
	return buf
}

func TestTCPEchoLoopback(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithIO())
	require.NoError(t, err)
	defer rt.Shutdown()

	addrCh := make(chan string, 1)
	resultCh := make(chan []byte, 1)
	go func() {
		resultCh <- dialAndExchange(t, addrCh, []byte("ping"), 4)
	}()

	kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) struct{} {
		listener, err := knet.Listen("127.0.0.1:0")
		require.NoError(t, err)
		defer listener.Close()

		addr, err := listener.LocalAddr()
		require.NoError(t, err)
		addrCh <- addr.String()

		accepted := kestrel.Await(a, listener.Accept())
		require.NoError(t, accepted.Err)
		conn := accepted.Value.Stream
		defer conn.Close()

		buf := make([]byte, 4)
		read := kestrel.Await(a, conn.Read(buf))
		require.NoError(t, read.Err)
		require.Equal(t, 4, read.Value)

		written := kestrel.Await(a, conn.WriteAll([]byte("pong")))
		require.NoError(t, written.Err)
		return struct{}{}
	}))

	assert.Equal(t, []byte("pong"), <-resultCh)
}

func TestTCPLargePayload(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithIO())
	require.NoError(t, err)
	defer rt.Shutdown()

	const size = 16384
	payload := bytes.Repeat([]byte{0x07}, size)

	addrCh := make(chan string, 1)
	resultCh := make(chan []byte, 1)
	go func() {
		resultCh <- dialAndExchange(t, addrCh, nil, size)
	}()

	kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) struct{} {
		listener, err := knet.Listen("127.0.0.1:0")
		require.NoError(t, err)
		defer listener.Close()

		addr, err := listener.LocalAddr()
		require.NoError(t, err)
		addrCh <- addr.String()

		accepted := kestrel.Await(a, listener.Accept())
		require.NoError(t, accepted.Err)
		conn := accepted.Value.Stream
		defer conn.Close()

		written := kestrel.Await(a, conn.WriteAll(payload))
		require.NoError(t, written.Err)
		return struct{}{}
	}))

	assert.Equal(t, payload, <-resultCh)
}
