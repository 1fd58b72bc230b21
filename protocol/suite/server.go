package suite

import (
	"context"

	"github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/common/hlog"
	"github.com/const-t/tempesta/protocol"
)

// HTTP1 必须和 ALPN nextProto 的值相同。
const (
	HTTP1 = "http/1.1"
	HTTP2 = "h2"
)

// Core 是协议服务器回望引擎的核心接口。
type Core interface {
	// IsRunning 报告引擎是否正在运行。
	IsRunning() bool

	// ServeHTTP 业务逻辑入口。
	// 请求装配完毕后，协议服务器调此法交付请求并取回响应。
	// req 的字节借用自连接缓冲，仅在本次调用内有效。
	ServeHTTP(c context.Context, req *protocol.Request, resp *protocol.Response)
}

// ServerFactory 定义创建普通服务器的工厂接口。
type ServerFactory interface {
	// New 构造普通服务器。
	New(core Core) (server protocol.Server, err error)
}

// ServerMap 定义 HTTP 协议与普通服务器的映射类型。
type ServerMap map[string]protocol.Server

// Config 维护协议及其服务器工厂的映射配置。
type Config struct {
	configMap map[string]ServerFactory
}

// New 返回空白协议组配置，再用 *Config.Add 来添加协议对应的服务器实现。
func New() *Config {
	return &Config{
		configMap: make(map[string]ServerFactory),
	}
}

// Get 获取给定协议的服务器工厂。
func (c *Config) Get(protocol string) ServerFactory {
	return c.configMap[protocol]
}

// Add 添加给定协议的服务器工厂。
func (c *Config) Add(protocol string, factory ServerFactory) {
	if fac := c.configMap[protocol]; fac != nil {
		hlog.SystemLogger().Warnf("协议 %s 的服务器工厂将被新工厂覆盖", protocol)
	}
	c.configMap[protocol] = factory
}

// LoadAll 加载所有可用的服务器协议及其实现。
func (c *Config) LoadAll(core Core) (serverMap ServerMap, err error) {
	serverMap = make(ServerMap)
	var server protocol.Server
	for proto := range c.configMap {
		if server, err = c.configMap[proto].New(core); err != nil {
			return nil, err
		}
		serverMap[proto] = server
	}
	return serverMap, nil
}

// Load 加载给定协议对应的普通服务器。
func (c *Config) Load(core Core, protocol string) (server protocol.Server, err error) {
	if c.configMap[protocol] == nil {
		return nil, errors.NewPrivate("加载服务器出错，不支持的协议：" + protocol)
	}
	return c.configMap[protocol].New(core)
}

// Delete 删除给定协议的普通服务器工厂。
func (c *Config) Delete(protocol string) {
	delete(c.configMap, protocol)
}
