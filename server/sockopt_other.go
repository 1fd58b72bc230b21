//go:build !linux

package server

import (
	"net"

	"github.com/const-t/tempesta/common/config"
)

// 非 Linux 平台不设置额外的套接字选项。
func newListenConfig(o *config.Options) *net.ListenConfig {
	return nil
}
