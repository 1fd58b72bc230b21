//go:build linux

package server

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/const-t/tempesta/common/config"
)

// newListenConfig 构造带套接字选项的监听配置。
// SO_REUSEADDR 允许端口仍处于 TIME_WAIT 时重新绑定；
// IP_FREEBIND 允许绑定尚未配置到接口的地址（灾备切换场景）。
func newListenConfig(o *config.Options) *net.ListenConfig {
	reuseAddr, freeBind := o.ReuseAddr, o.FreeBind
	if !reuseAddr && !freeBind {
		return nil
	}
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				if reuseAddr {
					serr = unix.SetsockoptInt(int(fd),
						unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				}
				if serr == nil && freeBind {
					level, opt := unix.IPPROTO_IP, unix.IP_FREEBIND
					if network == "tcp6" {
						level, opt = unix.IPPROTO_IPV6, unix.IPV6_FREEBIND
					}
					serr = unix.SetsockoptInt(int(fd), level, opt, 1)
				}
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
}
