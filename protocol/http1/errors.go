package http1

import (
	errs "github.com/const-t/tempesta/common/errors"
)

// 所有拦截错误共用 ErrorTypeProtocol：报文层语法或语义违例，
// 对本报文致命，由上层决定断连策略。
var (
	errLeadingGarbage = errs.NewProtocol("起始行前的空行超出容忍", nil)
	errLineEnding     = errs.NewProtocol("行终止符非法", nil)

	errMethod     = errs.NewProtocol("请求方法未注册", nil)
	errURIChar    = errs.NewProtocol("请求目标含非法字节", nil)
	errURIEscape  = errs.NewProtocol("请求目标的百分号转义非法", nil)
	errVersion    = errs.NewProtocol("协议版本非法", nil)
	errStatusLine = errs.NewProtocol("状态行非法", nil)
	errStatusCode = errs.NewProtocol("状态码非法", nil)

	errHeaderName      = errs.NewProtocol("标头名称非法", nil)
	errHeaderFold      = errs.NewProtocol("标头折叠行被拒绝", nil)
	errHeaderValueChar = errs.NewProtocol("标头值含非法字节", nil)

	errContentLength    = errs.NewProtocol("Content-Length 非法", nil)
	errContentLengthDup = errs.NewProtocol("Content-Length 重复且不一致", nil)
	errHostDup          = errs.NewProtocol("Host 重复且不一致", nil)
	errHostMissing      = errs.NewProtocol("HTTP/1.1 请求缺少 Host", nil)
	errHostEmpty        = errs.NewProtocol("Host 值为空", nil)
	errTransferEncoding = errs.NewProtocol("Transfer-Encoding 仅支持单一 chunked", nil)
	errSmuggling        = errs.NewProtocol("Transfer-Encoding 与 Content-Length 并存", nil)
	errBodylessMethod   = errs.NewProtocol("该方法的请求不得携带正文", nil)
	errETag             = errs.NewProtocol("实体标签列表非法", nil)

	errChunkSize   = errs.NewProtocol("分块长度非法", nil)
	errChunkExt    = errs.NewProtocol("分块扩展超限或非法", nil)
	errChunkDelim  = errs.NewProtocol("分块分隔符非法", nil)
	errTrailerName = errs.NewProtocol("尾部标头含被禁止的字段", nil)

	// Finish 误用不属于协议违例
	errIncomplete = errs.NewPrivate("报文尚未终结")
)
