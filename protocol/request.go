package protocol

import (
	"sync"

	"github.com/const-t/tempesta/internal/nocopy"
)

// 请求实例池，减少 GC
var requestPool = sync.Pool{
	New: func() interface{} {
		return &Request{}
	},
}

// Request 表示一个被解析的 HTTP 请求。
//
// 实例由解析器在推进期间独占修改，终结后交由上层只读使用。
// 标头与正文的字节借用自交付缓冲区，Release 前有效。
//
// 禁止拷贝 Request 实例。Request 实例不能用于并发协程。
type Request struct {
	noCopy nocopy.NoCopy

	// Header 是保持到达顺序的标头表。
	Header Headers

	method  Method
	uri     Str
	version Version

	// HTTP/2 伪标头
	scheme    Str
	authority Str

	contentLength uint64
	bodyKind      BodyKind
	body          Str

	flags MessageFlags
}

// Reset 清空请求以复用，底层容量保留。
func (req *Request) Reset() {
	req.Header.Reset()
	req.method = MethodUnknown
	req.uri.Reset()
	req.version = VersionUnknown
	req.scheme.Reset()
	req.authority.Reset()
	req.contentLength = 0
	req.bodyKind = BodyNone
	req.body.Reset()
	req.flags = 0
}

// Method 返回已识别的请求方法。
func (req *Request) Method() Method {
	return req.method
}

// SetMethod 记录请求方法。
func (req *Request) SetMethod(m Method) {
	req.method = m
}

// URI 返回请求目标。HTTP/2 请求对应 :path 伪标头。
func (req *Request) URI() *Str {
	return &req.uri
}

// Version 返回协议版本。
func (req *Request) Version() Version {
	return req.version
}

// SetVersion 记录协议版本。
func (req *Request) SetVersion(v Version) {
	req.version = v
}

// Scheme 返回 :scheme 伪标头值，仅 HTTP/2 请求非空。
func (req *Request) Scheme() *Str {
	return &req.scheme
}

// Authority 返回 :authority 伪标头值，仅 HTTP/2 请求非空。
func (req *Request) Authority() *Str {
	return &req.authority
}

// ContentLength 返回 Content-Length 声明的正文长度。
// 仅 BodyKind 为 BodyContentLength 时有意义。
func (req *Request) ContentLength() uint64 {
	return req.contentLength
}

// SetContentLength 记录正文长度并将定界方式置为 BodyContentLength。
func (req *Request) SetContentLength(n uint64) {
	req.contentLength = n
	req.bodyKind = BodyContentLength
}

// BodyKind 返回正文定界方式。
func (req *Request) BodyKind() BodyKind {
	return req.bodyKind
}

// SetBodyKind 记录正文定界方式。
func (req *Request) SetBodyKind(k BodyKind) {
	req.bodyKind = k
}

// Body 返回正文的分块字符串。分块编码下仅含数据字节，
// 不含块长行与分隔符。
func (req *Request) Body() *Str {
	return &req.body
}

// Flags 返回累积的报文标志。
func (req *Request) Flags() MessageFlags {
	return req.flags
}

// SetFlag 置位报文标志。
func (req *Request) SetFlag(f MessageFlags) {
	req.flags |= f
}

// HasFlag 报告标志是否已置位。
func (req *Request) HasFlag(f MessageFlags) bool {
	return req.flags&f != 0
}

// Complete 报告请求是否已终结。
func (req *Request) Complete() bool {
	return req.HasFlag(FlagComplete)
}

// AcquireRequest 从请求池取出空实例。
// 用完必须调用 ReleaseRequest 归还，此后实例不可再使用。
func AcquireRequest() *Request {
	return requestPool.Get().(*Request)
}

// ReleaseRequest 重置请求并归还池中。
// 归还即放弃对借用缓冲区字节的全部引用。
func ReleaseRequest(req *Request) {
	req.Reset()
	requestPool.Put(req)
}
