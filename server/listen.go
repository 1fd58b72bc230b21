package server

import (
	"net"
	"strconv"
	"strings"

	"github.com/const-t/tempesta/common/config"
	errs "github.com/const-t/tempesta/common/errors"
)

// maxListenSocks 是监听套接字的数量上限。
const maxListenSocks = 8

// parseListen 把一条 listen 指令解析为监听地址。
// 接受单个端口（如 "8081"，绑定 0.0.0.0）或完整地址（如 "127.0.0.1:8081"）。
func parseListen(directive string) (string, error) {
	if port, err := strconv.Atoi(directive); err == nil {
		if port < 0 || port > 65535 {
			return "", errs.NewPrivate("listen 端口越界：" + directive)
		}
		// 单个端口绑定 0.0.0.0:port（仅 IPv4）
		return "0.0.0.0:" + strconv.Itoa(port), nil
	}
	if _, _, err := net.SplitHostPort(directive); err != nil {
		return "", errs.NewPrivate("无法解析 listen 指令：" + directive)
	}
	return directive, nil
}

// listenAddrs 展开监听清单：优先逐条解析 Listens 指令并去重，
// 未配置或非 TCP 网络时退化为单个 Addr。
func (s *Server) listenAddrs() ([]string, error) {
	o := s.options
	if len(o.Listens) == 0 || !strings.HasPrefix(o.Network, "tcp") {
		return []string{o.Addr}, nil
	}
	if len(o.Listens) > maxListenSocks {
		return nil, errs.NewPrivate("监听套接字数量达到上限 " +
			strconv.Itoa(maxListenSocks))
	}
	addrs := make([]string, 0, len(o.Listens))
	seen := make(map[string]bool, len(o.Listens))
	for _, directive := range o.Listens {
		addr, err := parseListen(directive)
		if err != nil {
			return nil, err
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// sameListenSet 报告两组配置的监听清单是否一致。
func sameListenSet(a, b *config.Options) bool {
	if a.Addr != b.Addr || len(a.Listens) != len(b.Listens) {
		return false
	}
	for i := range a.Listens {
		if a.Listens[i] != b.Listens[i] {
			return false
		}
	}
	return true
}
