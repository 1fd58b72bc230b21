package factory

import (
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/http1"
	"github.com/const-t/tempesta/protocol/suite"
)

var _ suite.ServerFactory = (*serverFactory)(nil)

// 实现了创建 HTTP/1.1 服务器的工厂方法。
type serverFactory struct {
	option *http1.Option
}

// New 在引擎启动期间被调用，产出绑定 core 的协议服务器。
func (s *serverFactory) New(core suite.Core) (server protocol.Server, err error) {
	srv := http1.NewServer()
	srv.Option = *s.option
	srv.Core = core
	return srv, nil
}

// NewServerFactory 返回基于 HTTP/1.1 选项的服务器工厂。
func NewServerFactory(option *http1.Option) suite.ServerFactory {
	return &serverFactory{
		option: option,
	}
}
