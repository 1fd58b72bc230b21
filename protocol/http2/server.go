package http2

import (
	"context"
	"errors"

	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/network"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/http2/config"
	"github.com/const-t/tempesta/protocol/suite"
)

var errIdleTimeout = errs.New(errs.ErrIdleTimeout, errs.ErrorTypePrivate, nil)

// BaseEngine 聚合协议服务器的配置与引擎内核。
type BaseEngine struct {
	Config config.Config
	Core   suite.Core
}

// Server 表示 HTTP/2 服务器。实现 protocol.Server 协议接口。
type Server struct {
	BaseEngine
}

// Serve 提供连接服务：入站字节喂给连接解析端，排队的出站帧逐批
// 冲刷，装配完成的请求交给引擎内核后把响应写回所在流。流级违例
// 由解析端以 RST_STREAM 就地处置，服务不中断；连接级违例冲刷
// GOAWAY 后退出。
func (s *Server) Serve(c context.Context, conn network.Conn) (err error) {
	var h2c *Conn
	h2c = NewConn(&s.Config, func(st *Stream) error {
		resp := protocol.AcquireResponse()
		defer protocol.ReleaseResponse(resp)
		s.Core.ServeHTTP(c, st.Request(), resp)
		if werr := h2c.WriteResponse(st, resp); werr != nil {
			return werr
		}
		if s.Config.DisableKeepalive || !s.Core.IsRunning() {
			h2c.Shutdown()
		}
		return nil
	})
	defer h2c.Close()

	var blockErr error
	need := 1
	for {
		// 先冲刷，再推进：初始 SETTINGS、窗口扩容、应答帧、
		// RST_STREAM 与 GOAWAY 都经由这一条出口
		if out := h2c.PendingOutput(); len(out) > 0 {
			if _, err = conn.WriteBinary(out); err != nil {
				return err
			}
			if err = conn.Flush(); err != nil {
				return err
			}
			h2c.ClearOutput()
		}
		if blockErr != nil {
			return blockErr
		}
		if h2c.ShuttingDown() && h2c.NumActiveStreams() == 0 {
			return nil
		}

		if h2c.NumActiveStreams() == 0 {
			_ = conn.SetReadTimeout(s.Config.IdleTimeout)
		} else {
			_ = conn.SetReadTimeout(s.Config.ReadTimeout)
		}
		if _, err = conn.Peek(need); err != nil {
			if h2c.NumActiveStreams() == 0 {
				// 空闲收尾：对端得到 GOAWAY 而非裸断开
				h2c.Shutdown()
				blockErr = errIdleTimeout
				continue
			}
			return err
		}

		buf, _ := conn.Peek(conn.Len())
		n, rerr := h2c.Receive(buf)
		_ = conn.Skip(n)
		_ = conn.Release()
		if n == 0 && rerr == nil {
			// 悬置的半帧等新字节到达再试，避免空转
			need = conn.Len() + 1
		} else {
			need = 1
		}
		if rerr != nil && !errors.Is(rerr, errs.ErrNeedMore) {
			blockErr = rerr
			continue
		}
	}
}
