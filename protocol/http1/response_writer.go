package http1

import (
	"github.com/const-t/tempesta/common/bytebufferpool"
	"github.com/const-t/tempesta/internal/bytesconv"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/network"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
)

// WriteResponse 将 resp 以 HTTP/1.1 线格式写入 w 并刷新。
//
// 状态行之后按到达顺序写出各标头行，尾部行除外。未出现
// Content-Length 标头且配对语义允许正文时，按正文实际长度补一条
// 声明。HEAD 配对与 1xx、204、304 响应仅写标头，正文被丢弃。
func WriteResponse(resp *protocol.Response, w network.Writer) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	code := resp.StatusCode()
	if code == 0 {
		code = consts.StatusOK
	}
	if reason := resp.Reason(); reason.Len() > 0 {
		buf.B = append(buf.B, bytestr.StrHTTP11...)
		buf.B = append(buf.B, ' ')
		buf.B = bytesconv.AppendUint(buf.B, code)
		buf.B = append(buf.B, ' ')
		buf.B = reason.AppendTo(buf.B)
		buf.B = append(buf.B, bytestr.StrCRLF...)
	} else {
		buf.B = append(buf.B, consts.StatusLine(code)...)
	}

	voidBody := resp.VoidBody()
	if !voidBody && resp.Header.Peek(bytestr.StrContentLength) == nil {
		buf.B = append(buf.B, bytestr.StrContentLength...)
		buf.B = append(buf.B, bytestr.StrColonSpace...)
		buf.B = bytesconv.AppendUint(buf.B, resp.Body().Len())
		buf.B = append(buf.B, bytestr.StrCRLF...)
	}
	resp.Header.VisitAll(func(f *protocol.HeaderField) {
		if f.Trailer {
			return
		}
		buf.B = f.Name.AppendTo(buf.B)
		buf.B = append(buf.B, ':', ' ')
		buf.B = f.Value.AppendTo(buf.B)
		buf.B = append(buf.B, '\r', '\n')
	})
	buf.B = append(buf.B, bytestr.StrCRLF...)
	if !voidBody {
		buf.B = resp.Body().AppendTo(buf.B)
	}

	if _, err := w.WriteBinary(buf.B); err != nil {
		return err
	}
	// buf 在刷新完成前必须保持有效，见 Writer.WriteBinary 约定。
	return w.Flush()
}
