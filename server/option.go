package server

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/const-t/tempesta/common/config"
	"github.com/const-t/tempesta/network"
)

// WithListen 追加一条监听指令，可多次使用，最多 8 条。
// 接受单个端口（如 "8081"，绑定 0.0.0.0）或完整地址（如 "127.0.0.1:8081"）。
func WithListen(directive string) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Listens = append(o.Listens, directive)
	}}
}

// WithHostPorts 指定监听的地址和端口。默认值：":80"。
// 仅在未使用 WithListen 时生效。
func WithHostPorts(addr string) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Addr = addr
	}}
}

// WithNetwork 设置网络协议，可选 "tcp"、"unix"。默认值："tcp"。
func WithNetwork(network string) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Network = network
	}}
}

// WithReadTimeout 设置网络库读取数据超时时间。默认值 3 分钟。
//
// 当读超时时连接将关闭。
func WithReadTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ReadTimeout = t
	}}
}

// WithWriteTimeout 设置网络库写入数据超时时间。默认值：无限长。
//
// 当写超时时连接将关闭。
func WithWriteTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.WriteTimeout = t
	}}
}

// WithIdleTimeout 设置长连接闲置的超时时间。默认值 3 分钟。
//
// 当闲置时间超时时连接将关闭，以免受行为不端的客户端的攻击。
func WithIdleTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.IdleTimeout = t
	}}
}

// WithKeepAliveTimeout 设置长连接超时时间。
//
// 在大多数情况下，无需关心该选项。
// 默认值：1 分钟。
func WithKeepAliveTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.KeepAliveTimeout = t
	}}
}

// WithExitWaitTimeout 设置优雅退出的等待时间。默认值 5 秒。
//
// 超时后服务器强制关闭尚未处理完的连接。
func WithExitWaitTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ExitWaitTimeout = t
	}}
}

// WithMaxRequestBodySize 设置请求正文的最大字节数。默认值 4MB。
//
// 超限的请求以 413 拒绝并断开连接。
func WithMaxRequestBodySize(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.MaxRequestBodySize = n
	}}
}

// WithReadBufferSize 设置连接初始的读缓冲大小。默认值 4KB。
//
// 标头很大（如超大 cookie）时可调大。
func WithReadBufferSize(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ReadBufferSize = n
	}}
}

// WithDisableKeepalive 设置是否禁用长连接，每条连接只服务一个请求。
// 默认值：false。
func WithDisableKeepalive(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.DisableKeepalive = b
	}}
}

// WithTLS 设置监听套接字的 TLS 配置。
func WithTLS(cfg *tls.Config) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.TLS = cfg
	}}
}

// WithH2C 设置是否开启 HTTP/2 明文前言嗅探。默认值：true。
func WithH2C(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.H2C = b
	}}
}

// WithReuseAddr 设置监听套接字是否启用 SO_REUSEADDR。默认值：true。
func WithReuseAddr(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ReuseAddr = b
	}}
}

// WithFreeBind 设置监听套接字是否启用 IP_FREEBIND，
// 允许绑定尚未配置到接口的地址。默认值：false。仅 Linux 生效。
func WithFreeBind(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.FreeBind = b
	}}
}

// WithHeaderTableSize 设置 HTTP/2 通告的 HPACK 动态表大小。默认值 4096。
func WithHeaderTableSize(n uint32) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.HeaderTableSize = n
	}}
}

// WithMaxFrameSize 设置 HTTP/2 本端可接收的最大帧负载。默认值 16384。
func WithMaxFrameSize(n uint32) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.MaxFrameSize = n
	}}
}

// WithTransport 设置网络传输器的创建函数，
// 如 standard.NewTransporter 或 netpoll.NewTransporter。
func WithTransport(transporter func(options *config.Options) network.Transporter) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.TransporterNewer = transporter
	}}
}

// WithListenConfig 设置自定义监听配置，覆盖内置的套接字选项装配。
func WithListenConfig(l *net.ListenConfig) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ListenConfig = l
	}}
}

// WithOnAccept 设置连接被接受后的回调，可据此改写连接上下文。
func WithOnAccept(fn func(conn net.Conn) context.Context) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.OnAccept = fn
	}}
}

// WithOnConnect 设置连接建立后的回调，可据此改写连接上下文。
func WithOnConnect(fn func(ctx context.Context, conn network.Conn) context.Context) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.OnConnect = fn
	}}
}

// WithConnAdmission 设置连接级准入检查，在协议解析前调用。
// 返回非空错误则立即关闭连接。
func WithConnAdmission(fn func(conn network.Conn) error) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ConnAdmission = fn
	}}
}
