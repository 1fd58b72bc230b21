// Package server 把协议解析核心装配为可运行的入路径服务器：
// 监听套接字与套接字选项、连接与请求两级准入、h2c 前言嗅探分发、
// 优雅退出，以及设置文件的热重载。业务侧只需提供一个 Handler。
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/const-t/tempesta/common/config"
	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/common/hlog"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/network"
	"github.com/const-t/tempesta/network/standard"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
	"github.com/const-t/tempesta/protocol/http1"
	http1factory "github.com/const-t/tempesta/protocol/http1/factory"
	http2config "github.com/const-t/tempesta/protocol/http2/config"
	http2factory "github.com/const-t/tempesta/protocol/http2/factory"
	"github.com/const-t/tempesta/protocol/suite"
)

const unknownTransporterName = "unknown"

const (
	_ uint32 = iota
	statusInitialized
	statusRunning
	statusShutdown
	statusClosed
)

var (
	// 默认网络传输器（基于标准库实现，另外可选 netpoll.NewTransporter）
	defaultTransporter = standard.NewTransporter

	errInitFailed       = errs.NewPrivate("服务器已经初始化")
	errAlreadyRunning   = errs.NewPrivate("服务器已在运行中")
	errStatusNotRunning = errs.NewPrivate("服务器未在运行中")
	errAdmissionDenied  = errs.New(errs.ErrShortConnection, errs.ErrorTypePrivate, "连接未通过准入检查")
)

// Handler 承接装配完成的请求并填写响应。
// req 的字节借用连接读缓冲，仅在本次调用内有效。
type Handler func(c context.Context, req *protocol.Request, resp *protocol.Response)

// CtxErrCallback 服务器启动时依次触发的钩子函数。
type CtxErrCallback func(ctx context.Context) error

// CtxCallback 服务器退出时并发触发的钩子函数。
type CtxCallback func(ctx context.Context)

// SetTransporter 设置全局默认的网络传输器。
func SetTransporter(transporter func(options *config.Options) network.Transporter) {
	defaultTransporter = transporter
}

// Server 是入路径加速器的装配壳，实现 suite.Core。
type Server struct {
	options  *config.Options
	baseOpts []config.Option

	handler Handler
	// 请求级准入检查，须在 Run 之前设置。
	reqAdmission func(req *protocol.Request) error

	// OnRun 启动时依次触发的钩子。
	OnRun []CtxErrCallback
	// OnShutdown 优雅退出时并发触发的钩子。
	OnShutdown []CtxCallback

	protocolSuite *suite.Config
	// builtin 标记由本包注册、重载时可重建的协议工厂。
	builtin map[string]bool

	mu              sync.RWMutex
	protocolServers suite.ServerMap

	transporters []network.Transporter
	status       uint32
}

// New 创建给定处理器与选项的服务器。
func New(handler Handler, opts ...config.Option) *Server {
	return &Server{
		options:       config.NewOptions(opts),
		baseOpts:      opts,
		handler:       handler,
		protocolSuite: suite.New(),
		builtin:       make(map[string]bool),
	}
}

// AddProtocol 添加给定协议的服务器工厂，覆盖同名的内置实现。
// 自定义工厂不参与设置热重载。
func (s *Server) AddProtocol(protocol string, factory suite.ServerFactory) {
	s.protocolSuite.Delete(protocol)
	s.protocolSuite.Add(protocol, factory)
	delete(s.builtin, protocol)
}

// HasServer 报告是否已注册给定协议的服务器工厂。
func (s *Server) HasServer(protocol string) bool {
	return s.protocolSuite.Get(protocol) != nil
}

// GetOptions 返回服务器的配置项。
func (s *Server) GetOptions() *config.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// SetRequestAdmission 设置请求级准入检查，须在 Run 之前调用。
// 被拒绝的请求以 403 应答并随后断开连接。
func (s *Server) SetRequestAdmission(f func(req *protocol.Request) error) {
	s.reqAdmission = f
}

// 注册内置的 HTTP/1.1 与 HTTP/2 服务器工厂。
// 经 AddProtocol 注入的自定义工厂保持原样。
func (s *Server) registerDefaults(options *config.Options) {
	if s.builtin[suite.HTTP1] || !s.HasServer(suite.HTTP1) {
		s.protocolSuite.Delete(suite.HTTP1)
		s.protocolSuite.Add(suite.HTTP1, http1factory.NewServerFactory(newHTTP1Option(options)))
		s.builtin[suite.HTTP1] = true
	}
	if s.builtin[suite.HTTP2] || !s.HasServer(suite.HTTP2) {
		s.protocolSuite.Delete(suite.HTTP2)
		s.protocolSuite.Add(suite.HTTP2, http2factory.NewServerFactory(newHTTP2Options(options)...))
		s.builtin[suite.HTTP2] = true
	}
}

func newHTTP1Option(options *config.Options) *http1.Option {
	return &http1.Option{
		DisableKeepalive:   options.DisableKeepalive,
		MaxRequestBodySize: options.MaxRequestBodySize,
		IdleTimeout:        options.IdleTimeout,
		ReadTimeout:        options.ReadTimeout,
	}
}

func newHTTP2Options(options *config.Options) []http2config.Option {
	opts := []http2config.Option{
		http2config.WithReadTimeout(options.ReadTimeout),
		http2config.WithIdleTimeout(options.IdleTimeout),
		http2config.WithDisableKeepalive(options.DisableKeepalive),
	}
	if options.MaxFrameSize > 0 {
		opts = append(opts, http2config.WithMaxReadFrameSize(options.MaxFrameSize))
	}
	if options.HeaderTableSize > 0 {
		opts = append(opts, http2config.WithHeaderTableSize(options.HeaderTableSize))
	}
	return opts
}

// 初始化协议组：装配内置工厂并实例化各协议服务器。
func (s *Server) init() error {
	s.registerDefaults(s.options)
	serverMap, err := s.protocolSuite.LoadAll(s)
	if err != nil {
		return errs.New(err, errs.ErrorTypePrivate, "加载协议组出错")
	}
	s.mu.Lock()
	s.protocolServers = serverMap
	s.mu.Unlock()
	if !atomic.CompareAndSwapUint32(&s.status, 0, statusInitialized) {
		return errInitFailed
	}
	return nil
}

// MarkAsRunning 将服务器状态设为“运行中”。
// 警告：除非你知道自己在做什么，否则勿用此法。
func (s *Server) MarkAsRunning() error {
	if !atomic.CompareAndSwapUint32(&s.status, statusInitialized, statusRunning) {
		return errAlreadyRunning
	}
	return nil
}

// IsRunning 报告服务器是否正在运行。
func (s *Server) IsRunning() bool {
	return atomic.LoadUint32(&s.status) == statusRunning
}

// Run 监听全部 listen 地址并为到来的连接提供服务，
// 直至监听出错或服务器退出。
func (s *Server) Run() (err error) {
	if err = s.init(); err != nil {
		return err
	}

	addrs, err := s.listenAddrs()
	if err != nil {
		return err
	}
	transporters := make([]network.Transporter, 0, len(addrs))
	for _, addr := range addrs {
		o := *s.options
		o.Addr = addr
		if o.ListenConfig == nil {
			o.ListenConfig = newListenConfig(s.options)
		}
		transporters = append(transporters, newTransporter(&o))
	}
	s.transporters = transporters

	if err = s.MarkAsRunning(); err != nil {
		return err
	}
	defer atomic.SwapUint32(&s.status, statusClosed)

	ctx := context.Background()
	for i := range s.OnRun {
		if err = s.OnRun[i](ctx); err != nil {
			return err
		}
	}

	hlog.SystemLogger().Infof("使用网络库=%s 监听地址=%v", s.transporterName(), addrs)
	var g errgroup.Group
	for _, tr := range transporters {
		tr := tr
		g.Go(func() error {
			err := tr.ListenAndServe(s.onData)
			if err != nil && errors.Is(err, net.ErrClosed) &&
				atomic.LoadUint32(&s.status) != statusRunning {
				// 监听器随 Shutdown 关闭
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Spin 运行服务器直至捕获退出信号或 Run 返回错误，支持优雅退出。
func (s *Server) Spin() {
	errCh := make(chan error)
	go func() {
		errCh <- s.Run()
	}()

	if err := waitSignal(errCh); err != nil {
		hlog.SystemLogger().Errorf("收到退出信号：错误=%v", err)
		if err = s.Close(); err != nil {
			hlog.SystemLogger().Errorf("退出错误：%v", err)
		}
		return
	}

	exitWait := s.GetOptions().ExitWaitTimeout
	hlog.SystemLogger().Infof("开始优雅退出，最多等待 %d 秒...", exitWait/time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), exitWait)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		hlog.SystemLogger().Errorf("退出错误：%v", err)
	}
}

// 信号等待的默认实现。
// SIGTERM 立即退出。
// SIGHUP|SIGINT 触发优雅退出。
func waitSignal(errCh chan error) error {
	signalToNotify := []os.Signal{
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGTERM,
	}
	if signal.Ignored(syscall.SIGHUP) {
		signalToNotify = []os.Signal{
			syscall.SIGINT,
			syscall.SIGTERM,
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, signalToNotify...)

	select {
	case sig := <-signals:
		switch sig {
		case syscall.SIGTERM:
			// 强制退出
			return errs.NewPublic(sig.String())
		case syscall.SIGHUP, syscall.SIGINT:
			hlog.SystemLogger().Infof("收到退出信号：%s\n", sig)
			// 优雅退出
			return nil
		}
	case err := <-errCh:
		// 出现错误，立即退出
		return err
	}

	return nil
}

func (s *Server) onData(ctx context.Context, conn any) (err error) {
	if c, ok := conn.(network.Conn); ok {
		err = s.Serve(ctx, c)
	}
	return
}

// Serve 服务一条已接受的连接：先做连接级准入检查，
// 再按协议嗅探结果分发给对应的协议服务器。
func (s *Server) Serve(ctx context.Context, conn network.Conn) (err error) {
	defer func() {
		errProcess(conn, err)
	}()

	s.mu.RLock()
	options, servers := s.options, s.protocolServers
	s.mu.RUnlock()

	if admit := options.ConnAdmission; admit != nil {
		if reason := admit(conn); reason != nil {
			hlog.SystemLogger().Warnf("连接 %s 未通过准入检查：%v",
				getRemoteAddr(conn), reason)
			return errAdmissionDenied
		}
	}

	// H2C 即 HTTP/2 的明文协议，经连接前言嗅探识别
	if options.H2C {
		buf, _ := conn.Peek(len(bytestr.StrHTTP2Preface))
		if bytes.Equal(buf, bytestr.StrHTTP2Preface) {
			if srv := servers[suite.HTTP2]; srv != nil {
				return srv.Serve(ctx, conn)
			}
			hlog.SystemLogger().Warn("HTTP2 服务器未加载，连接回退到 HTTP1 服务器")
		}
	}

	// HTTP1 协议
	err = servers[suite.HTTP1].Serve(ctx, conn)

	return
}

// ServeHTTP 业务逻辑入口：请求级准入后交给 Handler。
// 处理器缺省时应答空的 200。
func (s *Server) ServeHTTP(c context.Context, req *protocol.Request, resp *protocol.Response) {
	if admit := s.reqAdmission; admit != nil {
		if reason := admit(req); reason != nil {
			hlog.SystemLogger().Warnf("请求未通过准入检查：%v", reason)
			resp.SetStatusCode(consts.StatusForbidden)
			f := resp.Header.Push()
			f.Name.Append(bytestr.StrConnection, protocol.ChunkFlagName)
			f.Value.Append(bytestr.StrClose, protocol.ChunkFlagValue)
			return
		}
	}
	if s.handler == nil {
		resp.SetStatusCode(consts.StatusOK)
		return
	}
	s.handler(c, req, resp)
}

// Shutdown 优雅退出服务器，步骤如下：
//
//  1. 并发触发 Server.OnShutdown 钩子函数，等待完成或超时；
//  2. 关闭全部监听器，不再接受新连接；
//  3. 已建立的连接处理完手头请求后，随空闲超时或 ctx 截止退出。
func (s *Server) Shutdown(ctx context.Context) (err error) {
	if atomic.LoadUint32(&s.status) != statusRunning {
		return errStatusNotRunning
	}
	if !atomic.CompareAndSwapUint32(&s.status, statusRunning, statusShutdown) {
		return
	}

	ch := make(chan struct{})
	// 触发可能的钩子
	go s.executeOnShutdownHooks(ctx, ch)
	defer func() {
		// 确保钩子执行完成或超时
		select {
		case <-ctx.Done():
			hlog.SystemLogger().Infof("执行 OnShutdown 钩子超时：错误=%v", ctx.Err())
			return
		case <-ch:
			hlog.SystemLogger().Info("执行 OnShutdown 钩子完成")
			return
		}
	}()

	// 关闭全部传输器
	var g errgroup.Group
	for _, tr := range s.transporters {
		tr := tr
		g.Go(func() error {
			if err := tr.Shutdown(ctx); err != ctx.Err() {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// 并发触发全部 OnShutdown 钩子，完成后关闭 ch。
func (s *Server) executeOnShutdownHooks(ctx context.Context, ch chan struct{}) {
	wg := sync.WaitGroup{}
	for i := range s.OnShutdown {
		wg.Add(1)
		go func(f CtxCallback) {
			defer wg.Done()
			f(ctx)
		}(s.OnShutdown[i])
	}
	wg.Wait()
	close(ch)
}

// Close 立即关闭全部监听器。优雅退出请用 Shutdown。
func (s *Server) Close() error {
	var err error
	for _, tr := range s.transporters {
		if e := tr.Close(); e != nil {
			err = e
		}
	}
	return err
}

// Reload 依据新的设置重建内置协议服务器，仅影响之后接受的连接。
// 监听拓扑与套接字选项须重启方可变更，发现差异时记录警告并忽略。
// 经 AddProtocol 注入的自定义工厂不受影响。
func (s *Server) Reload(st *Settings) error {
	opts, err := st.Options()
	if err != nil {
		return err
	}
	merged := make([]config.Option, 0, len(s.baseOpts)+len(opts))
	merged = append(merged, s.baseOpts...)
	merged = append(merged, opts...)
	options := config.NewOptions(merged)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !sameListenSet(options, s.options) {
		hlog.SystemLogger().Warnf("监听地址变更须重启生效：%v", options.Listens)
	}
	s.registerDefaults(options)
	serverMap, err := s.protocolSuite.LoadAll(s)
	if err != nil {
		return errs.New(err, errs.ErrorTypePrivate, "重载协议组出错")
	}
	s.options = options
	s.protocolServers = serverMap
	return nil
}

func newTransporter(o *config.Options) network.Transporter {
	if o.TransporterNewer != nil {
		return o.TransporterNewer(o)
	}
	return defaultTransporter(o)
}

func (s *Server) transporterName() string {
	if len(s.transporters) == 0 {
		return unknownTransporterName
	}
	return getTransporterName(s.transporters[0])
}

func getTransporterName(transporter network.Transporter) (tName string) {
	defer func() {
		err := recover()
		if err != nil || tName == "" {
			tName = unknownTransporterName
		}
	}()
	t := reflect.ValueOf(transporter).Type().String()
	tName = strings.Split(strings.TrimPrefix(t, "*"), ".")[0]
	return tName
}

// 连接服务结束后的错误处置：预期内的关闭静默处理，其余记录日志。
func errProcess(conn io.Closer, err error) {
	if err == nil {
		return
	}

	defer func() {
		if err != nil {
			conn.Close()
		}
	}()

	// 静默关闭连接
	if errors.Is(err, errs.ErrShortConnection) || errors.Is(err, errs.ErrIdleTimeout) {
		return
	}

	// 获取供外部使用的远程地址
	rip := getRemoteAddr(conn)

	// 处理特定错误
	if hse, ok := conn.(network.HandleSpecificError); ok {
		if hse.HandleSpecificError(err, rip) {
			return
		}
	}

	// 处理其他错误
	hlog.SystemLogger().Errorf(hlog.EngineErrorFormat, err.Error())
}

func getRemoteAddr(conn io.Closer) string {
	if c, ok := conn.(network.Conn); ok {
		if addr := c.RemoteAddr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}
