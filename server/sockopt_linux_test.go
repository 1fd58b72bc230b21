//go:build linux

package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/const-t/tempesta/common/config"
)

func sockoptInt(t *testing.T, ln net.Listener, level, opt int) int {
	t.Helper()
	raw, err := ln.(*net.TCPListener).SyscallConn()
	require.NoError(t, err)
	var val int
	var serr error
	require.NoError(t, raw.Control(func(fd uintptr) {
		val, serr = unix.GetsockoptInt(int(fd), level, opt)
	}))
	require.NoError(t, serr)
	return val
}

func TestNewListenConfig(t *testing.T) {
	assert.Nil(t, newListenConfig(&config.Options{}))

	lc := newListenConfig(&config.Options{ReuseAddr: true})
	require.NotNil(t, lc)
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.Equal(t, 1, sockoptInt(t, ln, unix.SOL_SOCKET, unix.SO_REUSEADDR))
}

func TestNewListenConfigFreeBind(t *testing.T) {
	lc := newListenConfig(&config.Options{FreeBind: true})
	require.NotNil(t, lc)
	ln, err := lc.Listen(context.Background(), "tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.Equal(t, 1, sockoptInt(t, ln, unix.IPPROTO_IP, unix.IP_FREEBIND))
}
