package protocol

import "github.com/const-t/tempesta/protocol/consts"

// Version 标识报文的 HTTP 协议版本。
type Version uint8

const (
	VersionUnknown Version = iota
	Version10
	Version11
	Version2
)

// String 返回版本的线上形式。
func (v Version) String() string {
	switch v {
	case Version10:
		return consts.HTTP10
	case Version11:
		return consts.HTTP11
	case Version2:
		return consts.HTTP20
	}
	return ""
}

// BodyKind 描述报文正文的定界方式。
type BodyKind uint8

const (
	// BodyNone 无正文。
	BodyNone BodyKind = iota

	// BodyContentLength 正文由 Content-Length 定界。
	BodyContentLength

	// BodyChunked 正文由分块编码定界。
	BodyChunked

	// BodyToEOF 正文以连接关闭定界，仅响应可用。
	BodyToEOF
)

// MessageFlags 是解析过程累积的报文标志位。
type MessageFlags uint16

const (
	// FlagStripLF 报文前剥离了一个空行。
	FlagStripLF MessageFlags = 1 << iota

	// FlagStripCR 剥离的空行含回车。
	FlagStripCR

	// FlagHTTP2 报文来自 HTTP/2 流。
	FlagHTTP2

	// FlagHeadersParsed 标头部分已完整。
	FlagHeadersParsed

	// FlagChunked 正文为分块编码。
	FlagChunked

	// FlagVoidBody 正文按配对语义被抑制，如 HEAD 响应。
	FlagVoidBody

	// FlagComplete 报文已终结。
	FlagComplete

	// FlagConnClose 对端声明不再复用连接。
	FlagConnClose

	// FlagKeepAlive 对端显式声明保持连接，HTTP/1.0 复用据此判定。
	FlagKeepAlive

	// FlagTrailers 报文带尾部标头。
	FlagTrailers
)
