package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/const-t/tempesta/network"
)

const (
	defaultKeepAliveTimeout   = 1 * time.Minute
	defaultReadTimeout        = 3 * time.Minute
	defaultWaitExitTimeout    = 5 * time.Second
	defaultNetwork            = "tcp"
	defaultAddr               = ":80"
	defaultMaxRequestBodySize = 4 * 1024 * 1024
	defaultReadBufferSize     = 4 * 1024

	// DefaultHeaderTableSize 是 HPACK 动态表的默认大小（八位字节）。
	DefaultHeaderTableSize = 4096
	// DefaultMaxFrameSize 是对端可发送的最大帧负载（字节）。
	DefaultMaxFrameSize = 16384
)

// Option 是用于配置 Options 唯一结构体。
type Option struct {
	F func(o *Options)
}

// Options 是配置项的结构体。
type Options struct {
	// KeepAliveTimeout 是长连接的超时时间，默认 1 分钟，通常无需关心，仅需关心 IdleTimeout。
	KeepAliveTimeout time.Duration

	// ReadTimeout 是网络库读取的超时时间，默认 3 分钟，0 代表永不超时。
	ReadTimeout time.Duration

	// WriteTimeout 是网络库写入的超时时间，默认为 0，即永不超时。
	WriteTimeout time.Duration

	// IdleTime 是长连接的闲置超时，超时则关闭。默认为 ReadTimeout 即 3 分钟，0 代表永不超时。
	IdleTimeout time.Duration

	MaxRequestBodySize int           // 正文的最大请求字节数，默认 4MB
	DisableKeepalive   bool          // 是否禁用长连接，默认否
	Network            string        // 网络协议，可选 "tcp", "unix"(unix domain socket)，默认 "tcp"
	Addr               string        // 监听地址，默认 ":80"
	Listens            []string      // 监听指令列表，"端口" 或 "IP:端口" 两种形式；为空时退化为 Addr
	ExitWaitTimeout    time.Duration // 优雅退出的等待时间，默认 5s
	TLS                *tls.Config
	H2C                bool              // 是否开启 HTTP/2 Cleartext（明文）协议前言嗅探，默认开
	ReadBufferSize     int               // 初始的读缓冲大小，默认 4KB。通常无需设置。
	ListenConfig       *net.ListenConfig // 自定义监听配置，用于设置套接字选项

	// ReuseAddr 在监听套接字上设置 SO_REUSEADDR，默认开。
	ReuseAddr bool
	// FreeBind 在监听套接字上设置 IP_FREEBIND，允许绑定尚未配置的地址，默认关。
	FreeBind bool

	// HeaderTableSize 是本端通告的 HPACK 动态表大小（八位字节），默认 4096。
	HeaderTableSize uint32
	// MaxFrameSize 是本端可接收的最大帧负载（字节），默认 16384。
	MaxFrameSize uint32

	// TransporterNewer 是传输器的自定义创建函数。
	TransporterNewer func(opt *Options) network.Transporter
	// AltTransporterNewer 是替补的传输器自定义创建函数。
	AltTransporterNewer func(opt *Options) network.Transporter

	// 在 netpoll 库中，OnAccept 是在接受连接之后且加到 epoll 之前调用的。OnConnect 是在加到 epoll 之后调用的。
	// 区别在于 OnConnect 能取数据，而 OnAccept 不能。例如想检查对端IP是否在黑名单中，可使用 OnAccept。
	//
	// 在 go/net 中，OnAccept 是在接受连接之后且建立 tls 连接之前调用的。建立 tls 连接后执行 OnConnect。
	OnAccept  func(conn net.Conn) context.Context
	OnConnect func(ctx context.Context, conn network.Conn) context.Context

	// ConnAdmission 在连接进入协议解析前调用，返回非空错误则立即关闭连接。
	ConnAdmission func(conn network.Conn) error
}

// Apply 将指定的一组配置方法 opts 应用到配置项上。
func (o *Options) Apply(opts []Option) {
	for _, opt := range opts {
		opt.F(o)
	}
}

// NewOptions 创建基于给定配置函数的配置项。
func NewOptions(opts []Option) *Options {
	options := &Options{
		KeepAliveTimeout:   defaultKeepAliveTimeout,
		ReadTimeout:        defaultReadTimeout,
		IdleTimeout:        defaultReadTimeout,
		Network:            defaultNetwork,
		Addr:               defaultAddr,
		MaxRequestBodySize: defaultMaxRequestBodySize,
		ExitWaitTimeout:    defaultWaitExitTimeout,
		ReadBufferSize:     defaultReadBufferSize,
		H2C:                true,
		ReuseAddr:          true,
		HeaderTableSize:    DefaultHeaderTableSize,
		MaxFrameSize:       DefaultMaxFrameSize,
	}
	options.Apply(opts)
	return options
}
