// Package bytestr 定义常用字符串的字节切片常量。
package bytestr

var (
	DefaultServerName = []byte("tempesta")

	StrCRLF       = []byte("\r\n")
	StrHTTP       = []byte("http")
	StrHTTPS      = []byte("https")
	StrHTTP10     = []byte("HTTP/1.0")
	StrHTTP11     = []byte("HTTP/1.1")
	StrColon      = []byte(":")
	StrColonSpace = []byte(": ")
	StrCommaSpace = []byte(", ")
	StrSlash      = []byte("/")
	StrStar       = []byte("*")
	StrZero       = []byte("0")

	StrHost             = []byte("Host")
	StrContentLength    = []byte("Content-Length")
	StrContentType      = []byte("Content-Type")
	StrTransferEncoding = []byte("Transfer-Encoding")
	StrConnection       = []byte("Connection")
	StrDate             = []byte("Date")
	StrServer           = []byte("Server")
	StrTrailer          = []byte("Trailer")
	StrUpgrade          = []byte("Upgrade")
	StrIfMatch          = []byte("If-Match")
	StrIfNoneMatch      = []byte("If-None-Match")

	StrChunked   = []byte("chunked")
	StrClose     = []byte("close")
	StrKeepAlive = []byte("keep-alive")

	StrTextPlainUTF8 = []byte("text/plain; charset=utf-8")

	// StrHTTP2Preface 是 HTTP/2 连接的客户端前言。
	StrHTTP2Preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

	StrPseudoMethod    = []byte(":method")
	StrPseudoScheme    = []byte(":scheme")
	StrPseudoAuthority = []byte(":authority")
	StrPseudoPath      = []byte(":path")
	StrPseudoStatus    = []byte(":status")
)
