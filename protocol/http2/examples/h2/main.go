package main

import (
	"context"
	"time"

	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
	"github.com/const-t/tempesta/protocol/http2/config"
	"github.com/const-t/tempesta/protocol/http2/factory"
	"github.com/const-t/tempesta/protocol/suite"
	"github.com/const-t/tempesta/server"
)

func main() {
	srv := server.New(func(_ context.Context, req *protocol.Request, resp *protocol.Response) {
		resp.SetStatusCode(consts.StatusOK)
		resp.Body().Append([]byte("method="), 0)
		resp.Body().Append([]byte(req.Method().String()), 0)
		resp.Body().Append([]byte(" path="), 0)
		resp.Body().Append(req.URI().AppendTo(nil), 0)
	}, server.WithListen("8080"), server.WithH2C(true))

	// 注册定制的 http2 服务器工厂
	srv.AddProtocol(suite.HTTP2, factory.NewServerFactory(
		config.WithReadTimeout(time.Minute),
		config.WithHeaderTableSize(8192),
	))

	srv.Spin()
}
