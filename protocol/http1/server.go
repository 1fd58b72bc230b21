package http1

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/network"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
	"github.com/const-t/tempesta/protocol/suite"
)

var (
	errIdleTimeout     = errs.New(errs.ErrIdleTimeout, errs.ErrorTypePrivate, nil)
	errShortConnection = errs.New(errs.ErrShortConnection, errs.ErrorTypePublic, "服务器即将关闭该连接")
	errUnexpectedEOF   = errs.NewPublic(io.ErrUnexpectedEOF.Error() + " when reading request")

	errBodyTooLarge = errs.NewProtocol("请求正文超出限制", nil)
)

var (
	strErrParse    = []byte("解析请求时出错")
	strErrTimeout  = []byte("请求超时")
	strErrTooLarge = []byte("请求实体过大")
)

// NewServer 创建 HTTP/1.1 服务器。
func NewServer() *Server {
	return &Server{}
}

// Option 表示 HTTP/1.1 服务器选项。
type Option struct {
	DisableKeepalive      bool          // 是否禁用长连接
	NoDefaultServerHeader bool          // 是否不要默认服务器名称
	MaxRequestBodySize    int           // 最大请求正文大小
	IdleTimeout           time.Duration // 闲置连接的超时时长
	ReadTimeout           time.Duration // 读取请求的超时时长
	ServerName            []byte        // 服务器名称
}

// Server 表示 HTTP/1.1 服务器。实现 protocol.Server 协议接口。
type Server struct {
	Option
	Core suite.Core
}

// Serve 提供连接服务。
//
// 每轮循环解析一个请求：逐片喂入解析器，终结后配对响应并交给
// Core 处理，写出响应后按复用决策继续或断开。请求的分块字节借用
// 连接读缓冲，在响应刷新并 Release 之前保持有效。
func (s Server) Serve(c context.Context, conn network.Conn) (err error) {
	var (
		p    Parser
		req  = protocol.AcquireRequest()
		resp = protocol.AcquireResponse()

		serverName     []byte
		connRequestNum = uint64(0)
	)
	defer func() {
		_ = conn.Release()
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	if !s.NoDefaultServerHeader {
		serverName = s.ServerName
	}

	for {
		connRequestNum++

		// 若为长链接，则尝试在闲置超时前读到新请求的首字节。
		// 读不到只意味着对端关闭了连接，或闲置到期由我方断开，
		// 两种情形都无需任何错误响应。
		if connRequestNum > 1 {
			_ = conn.SetReadTimeout(s.IdleTimeout)
			if _, err = conn.Peek(1); err != nil {
				return errIdleTimeout
			}
		}
		_ = conn.SetReadTimeout(s.ReadTimeout)

		req.Reset()
		resp.Reset()
		p.InitRequest(req)

		consumed := 0
		for {
			if conn.Len() == 0 {
				if _, err = conn.Peek(1); err != nil {
					if consumed == 0 && connRequestNum == 1 {
						return nil
					}
					if errors.Is(err, io.EOF) {
						return errUnexpectedEOF
					}
					writeErrorResponse(resp, conn, serverName, err)
					return err
				}
			}
			var buf []byte
			if buf, err = conn.Peek(conn.Len()); err != nil {
				return err
			}
			n, perr := p.ParseRequest(buf)
			consumed += n
			if err = conn.Skip(n); err != nil {
				return err
			}
			if perr != nil && !errors.Is(perr, errs.ErrNeedMore) {
				writeErrorResponse(resp, conn, serverName, perr)
				return perr
			}
			if s.MaxRequestBodySize > 0 && req.Body().Len() > s.MaxRequestBodySize {
				writeErrorResponse(resp, conn, serverName, errBodyTooLarge)
				return errBodyTooLarge
			}
			if perr == nil {
				break
			}
		}

		// ⭐️ 处理请求。
		//
		// 此时报文已终结，全部标头与正文可用。
		resp.PairWith(req)
		s.Core.ServeHTTP(c, req, resp)

		// 连接复用决策
		connectionClose := s.DisableKeepalive ||
			req.HasFlag(protocol.FlagConnClose) ||
			!s.Core.IsRunning()
		isHTTP11 := req.Version() == protocol.Version11
		if !isHTTP11 && !req.HasFlag(protocol.FlagKeepAlive) {
			connectionClose = true
		}
		if v := resp.Header.Peek(bytestr.StrConnection); v != nil && v.EqFold(bytestr.StrClose) {
			connectionClose = true
		}

		if serverName != nil && resp.Header.Peek(bytestr.StrServer) == nil {
			setHeader(&resp.Header, bytestr.StrServer, serverName)
		}
		if connectionClose {
			setHeader(&resp.Header, bytestr.StrConnection, bytestr.StrClose)
		} else if !isHTTP11 {
			setHeader(&resp.Header, bytestr.StrConnection, bytestr.StrKeepAlive)
		}

		if err = WriteResponse(resp, conn); err != nil {
			return
		}

		// 响应已刷新，本报文借用的读缓冲字节就此失效。
		if err = conn.Release(); err != nil {
			return
		}

		if connectionClose {
			return errShortConnection
		}

		// 返回网络层进行触发。
		// 目前只有 netpoll 的网络模式有此特性，标准库模式继续循环。
		if s.IdleTimeout == 0 {
			return
		}
	}
}

// setHeader 替换首个同名行的值，不存在则追加一行。
func setHeader(h *protocol.Headers, name, value []byte) {
	if f := h.PeekField(name); f != nil {
		f.Value.Reset()
		f.Value.Append(value, protocol.ChunkFlagValue)
		return
	}
	f := h.Push()
	f.Name.Append(name, protocol.ChunkFlagName)
	f.Value.Append(value, protocol.ChunkFlagValue)
}

// writeErrorResponse 写出读取或解析失败的兜底响应，写完即断连。
func writeErrorResponse(resp *protocol.Response, conn network.Conn, serverName []byte, err error) {
	resp.Reset()

	code := consts.StatusBadRequest
	body := strErrParse
	if netErr, ok := err.(*net.OpError); ok && netErr.Timeout() {
		code = consts.StatusRequestTimeout
		body = strErrTimeout
	} else if errors.Is(err, errBodyTooLarge) {
		code = consts.StatusRequestEntityTooLarge
		body = strErrTooLarge
	}
	resp.SetStatusCode(code)
	resp.Body().Append(body, 0)

	setHeader(&resp.Header, bytestr.StrContentType, bytestr.StrTextPlainUTF8)
	setHeader(&resp.Header, bytestr.StrConnection, bytestr.StrClose)
	if serverName != nil {
		setHeader(&resp.Header, bytestr.StrServer, serverName)
	}
	_ = WriteResponse(resp, conn)
}
