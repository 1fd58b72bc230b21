// Package http2 实现面向加速器入路径的 HTTP/2 接收端：
// 帧首部装配、流状态机、跨 CONTINUATION 的标头块累积、
// HPACK 解码与请求装配、流控记账及控制帧应答。
//
// 全部状态只被所在连接的单一接收协程触碰，不加锁。
// 违例分两级：流级以 RST_STREAM 重置后连接继续，
// 连接级以 GOAWAY 终结整条连接。
package http2

import (
	"github.com/const-t/tempesta/internal/bytesconv"
	"github.com/const-t/tempesta/protocol"
)

const (
	// RFC 9113 §6.5.2 对 MAX_FRAME_SIZE 的取值区间。
	minMaxFrameSize = 1 << 14
	maxMaxFrameSize = 1<<24 - 1

	// maxWindow 是流控窗口上限（§6.9.1）。
	maxWindow = 1<<31 - 1

	// initialWindowSize 是 SETTINGS 生效前双方窗口的初值。
	initialWindowSize = 65535

	defaultMaxStreams        = 100
	defaultHeaderTableSize   = 4096
	defaultMaxHeaderListSize = 64 << 10
	defaultConnRecvWindow    = 1 << 20
	defaultStreamRecvWindow  = 1 << 20

	// fieldOverhead 是列表尺寸口径中每个字段计入的固定开销（§10.5.1）。
	fieldOverhead = 32
)

// 连接专属字段禁止进入 HTTP/2（RFC 9113 §8.2.2）。名称已强制小写。
var (
	strConnection       = []byte("connection")
	strKeepAlive        = []byte("keep-alive")
	strProxyConnection  = []byte("proxy-connection")
	strTransferEncoding = []byte("transfer-encoding")
	strUpgrade          = []byte("upgrade")
	strTE               = []byte("te")
	strTrailersOnly     = []byte("trailers")
	strContentLength    = []byte("content-length")
	strHost             = []byte("host")
)

// validFieldName 校验常规字段名：非空小写 token。
// 大写字母与字段名内的冒号一律拒绝（§8.2.1）。
func validFieldName(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		case c == '!' || c == '#' || c == '$' || c == '%' || c == '&' ||
			c == '\'' || c == '*' || c == '+' || c == '^' || c == '`' ||
			c == '|' || c == '~':
		default:
			return false
		}
	}
	return true
}

// validFieldValue 拒绝 NUL、CR、LF 以及首尾空白（§8.2.1）。
func validFieldValue(b []byte) bool {
	for _, c := range b {
		if c == 0 || c == '\r' || c == '\n' {
			return false
		}
	}
	if len(b) > 0 {
		if c := b[0]; c == ' ' || c == '\t' {
			return false
		}
		if c := b[len(b)-1]; c == ' ' || c == '\t' {
			return false
		}
	}
	return true
}

// checkPath 校验 :path 的字节并返回值块应携带的标志。
// 控制字节、空格与非 ASCII 字节必须以百分号转义送达，
// 转义本身须是完整的两位十六进制。
func checkPath(b []byte) (protocol.ChunkFlags, bool) {
	var flags protocol.ChunkFlags
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c <= 0x20 || c >= 0x7f {
			return 0, false
		}
		if c == '%' {
			if i+2 >= len(b) ||
				bytesconv.Hex2intTable[b[i+1]] == 16 ||
				bytesconv.Hex2intTable[b[i+2]] == 16 {
				return 0, false
			}
			flags |= protocol.ChunkFlagUnescape
			i += 2
		}
	}
	return flags, true
}

// validScheme 按 URI 语法校验 :scheme：字母起始，
// 后续为字母数字或 "+" "-" "."。
func validScheme(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if c := b[0] | 0x20; c < 'a' || c > 'z' {
		return false
	}
	for _, c := range b[1:] {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
		case c == '+' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}

// validAuthority 校验 :authority 的主机与端口字节。
// userinfo 成分（"@"）按 §8.3.1 拒绝。
func validAuthority(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_' || c == '~' || c == ':' ||
			c == '[' || c == ']' || c == '%':
		default:
			return false
		}
	}
	return true
}

// eqFoldASCII 报告两个字节串在 ASCII 大小写折叠下是否相等。
func eqFoldASCII(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i, ca := range a {
		cb := b[i]
		if ca == cb {
			continue
		}
		if ca|0x20 != cb|0x20 {
			return false
		}
		if c := ca | 0x20; c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
