package factory

import (
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/http2"
	"github.com/const-t/tempesta/protocol/http2/config"
	"github.com/const-t/tempesta/protocol/suite"
)

var _ suite.ServerFactory = (*serverFactory)(nil)

// 实现了创建 HTTP/2 服务器的工厂方法。
type serverFactory struct {
	option *config.Config
}

// New 在引擎启动期间被调用。
func (s *serverFactory) New(core suite.Core) (server protocol.Server, err error) {
	return &http2.Server{
		BaseEngine: http2.BaseEngine{
			Config: *s.option,
			Core:   core,
		},
	}, nil
}

func NewServerFactory(opts ...config.Option) suite.ServerFactory {
	option := config.NewConfig(opts...)
	return &serverFactory{
		option: option,
	}
}
