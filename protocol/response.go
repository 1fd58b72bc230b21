package protocol

import (
	"sync"

	"github.com/const-t/tempesta/internal/nocopy"
)

// 响应实例池，减少 GC
var responsePool = sync.Pool{
	New: func() interface{} {
		return &Response{}
	},
}

// Response 表示一个被解析的 HTTP 响应。
//
// 响应持有配对请求的只读引用：正文定界的合法性取决于请求方法与
// 响应状态码（HEAD、1xx、204、304 均无正文）。
//
// 禁止拷贝 Response 实例。Response 实例不能用于并发协程。
type Response struct {
	noCopy nocopy.NoCopy

	// Header 是保持到达顺序的标头表。
	Header Headers

	statusCode int
	reason     Str
	version    Version

	contentLength uint64
	bodyKind      BodyKind
	body          Str

	flags MessageFlags

	// 配对请求，仅读，不持有
	req *Request
}

// Reset 清空响应以复用，底层容量保留。配对引用一并清除。
func (resp *Response) Reset() {
	resp.Header.Reset()
	resp.statusCode = 0
	resp.reason.Reset()
	resp.version = VersionUnknown
	resp.contentLength = 0
	resp.bodyKind = BodyNone
	resp.body.Reset()
	resp.flags = 0
	resp.req = nil
}

// StatusCode 返回响应状态码。
func (resp *Response) StatusCode() int {
	return resp.statusCode
}

// SetStatusCode 记录响应状态码。
func (resp *Response) SetStatusCode(code int) {
	resp.statusCode = code
}

// Reason 返回原因短语。内容不参与任何判定，仅为透传保留。
func (resp *Response) Reason() *Str {
	return &resp.reason
}

// Version 返回协议版本。
func (resp *Response) Version() Version {
	return resp.version
}

// SetVersion 记录协议版本。
func (resp *Response) SetVersion(v Version) {
	resp.version = v
}

// ContentLength 返回 Content-Length 声明的正文长度。
// 仅 BodyKind 为 BodyContentLength 时有意义。
func (resp *Response) ContentLength() uint64 {
	return resp.contentLength
}

// SetContentLength 记录正文长度并将定界方式置为 BodyContentLength。
func (resp *Response) SetContentLength(n uint64) {
	resp.contentLength = n
	resp.bodyKind = BodyContentLength
}

// BodyKind 返回正文定界方式。
func (resp *Response) BodyKind() BodyKind {
	return resp.bodyKind
}

// SetBodyKind 记录正文定界方式。
func (resp *Response) SetBodyKind(k BodyKind) {
	resp.bodyKind = k
}

// Body 返回正文的分块字符串。
func (resp *Response) Body() *Str {
	return &resp.body
}

// Flags 返回累积的报文标志。
func (resp *Response) Flags() MessageFlags {
	return resp.flags
}

// SetFlag 置位报文标志。
func (resp *Response) SetFlag(f MessageFlags) {
	resp.flags |= f
}

// HasFlag 报告标志是否已置位。
func (resp *Response) HasFlag(f MessageFlags) bool {
	return resp.flags&f != 0
}

// Complete 报告响应是否已终结。
func (resp *Response) Complete() bool {
	return resp.HasFlag(FlagComplete)
}

// PairedRequest 返回配对请求，未配对返回 nil。
func (resp *Response) PairedRequest() *Request {
	return resp.req
}

// PairWith 绑定配对请求。响应解析只读取该请求。
func (resp *Response) PairWith(req *Request) {
	resp.req = req
}

// VoidBody 报告按配对语义本响应是否必然无正文：
// 配对请求为 HEAD，或状态码为 1xx、204、304。
func (resp *Response) VoidBody() bool {
	if resp.req != nil && resp.req.Method() == MethodHead {
		return true
	}
	code := resp.statusCode
	return (code >= 100 && code < 200) || code == 204 || code == 304
}

// AcquireResponse 从响应池取出空实例。
// 用完必须调用 ReleaseResponse 归还，此后实例不可再使用。
func AcquireResponse() *Response {
	return responsePool.Get().(*Response)
}

// ReleaseResponse 重置响应并归还池中。
// 归还即放弃对借用缓冲区字节的全部引用。
func ReleaseResponse(resp *Response) {
	resp.Reset()
	responsePool.Put(resp)
}
