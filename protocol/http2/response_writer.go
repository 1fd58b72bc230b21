package http2

import (
	"github.com/const-t/tempesta/common/bytebufferpool"
	"github.com/const-t/tempesta/internal/bytesconv"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
	"github.com/const-t/tempesta/protocol/http2/hpack"
)

// WriteResponse 把一条响应编排进出站缓冲：:status 与各标头行经
// HPACK 编码，按对端 MAX_FRAME_SIZE 切分为 HEADERS 加若干
// CONTINUATION；正文切分为 DATA 并受两级发送窗口约束，窗口不足的
// 残余暂存流上，随对端 WINDOW_UPDATE 续发，排空前流保持存活。
// 标头名折叠为小写，Sensitive 行保持从不索引。
func (c *Conn) WriteResponse(s *Stream, resp *protocol.Response) error {
	if c.err != nil {
		return c.err
	}
	if s == nil || s.state == StreamClosed {
		return errFrameSync
	}
	blk := bytebufferpool.Get()
	defer bytebufferpool.Put(blk)
	tmp := bytebufferpool.Get()
	defer bytebufferpool.Put(tmp)

	status := resp.StatusCode()
	if status == 0 {
		status = consts.StatusOK
	}
	tmp.B = bytesconv.AppendUint(tmp.B, status)
	blk.B = c.henc.AppendField(blk.B, hpack.Field{Name: bytestr.StrPseudoStatus, Value: tmp.B})

	body := resp.Body()
	voidBody := resp.VoidBody()
	if !voidBody && resp.Header.Peek(strContentLength) == nil {
		tmp.Reset()
		tmp.B = bytesconv.AppendUint(tmp.B, body.Len())
		blk.B = c.henc.AppendField(blk.B, hpack.Field{Name: strContentLength, Value: tmp.B})
	}
	resp.Header.VisitAll(func(f *protocol.HeaderField) {
		if f.Trailer || isConnectionSpecific(&f.Name) {
			return
		}
		tmp.Reset()
		tmp.B = f.Name.AppendTo(tmp.B)
		n := len(tmp.B)
		bytesconv.LowercaseBytes(tmp.B[:n])
		tmp.B = f.Value.AppendTo(tmp.B)
		blk.B = c.henc.AppendField(blk.B, hpack.Field{
			Name:      tmp.B[:n],
			Value:     tmp.B[n:],
			Sensitive: f.Sensitive,
		})
	})

	endStream := voidBody || body.Empty()
	max := int(c.peerMaxFrameSize)
	frag := blk.B
	first := frag
	if len(first) > max {
		first = first[:max]
	}
	c.out.B = AppendHeaders(c.out.B, HeadersParam{
		StreamID:   s.id,
		Fragment:   first,
		EndStream:  endStream,
		EndHeaders: len(frag) <= max,
	})
	frag = frag[len(first):]
	for len(frag) > 0 {
		seg := frag
		if len(seg) > max {
			seg = seg[:max]
		}
		frag = frag[len(seg):]
		c.out.B = AppendContinuation(c.out.B, s.id, len(frag) == 0, seg)
	}
	if endStream {
		return nil
	}
	for i, n := 0, body.Chunks(); i < n; i++ {
		c.sendData(s, body.ChunkAt(i).Data(), i == n-1)
	}
	return nil
}

// 按 RFC 9113 §8.2.2 剔除面向单跳连接的标头。
func isConnectionSpecific(name *protocol.Str) bool {
	return name.EqFold(strConnection) ||
		name.EqFold(strKeepAlive) ||
		name.EqFold(strProxyConnection) ||
		name.EqFold(strTransferEncoding) ||
		name.EqFold(strUpgrade)
}

// sendData 把一段正文切为 DATA 送出。窗口不足的部分复制进流的
// 暂存缓冲，保持字节序。
func (c *Conn) sendData(s *Stream, seg []byte, end bool) {
	if s.hasPending() {
		s.pending.B = append(s.pending.B, seg...)
		s.pendingEnd = end
		return
	}
	for len(seg) > 0 {
		n := len(seg)
		if m := int(c.peerMaxFrameSize); n > m {
			n = m
		}
		if avail := s.outflow.available(); int32(n) > avail {
			n = int(avail)
		}
		if n <= 0 {
			break
		}
		s.outflow.take(int32(n))
		c.out.B = AppendData(c.out.B, s.id, end && n == len(seg), seg[:n])
		seg = seg[n:]
	}
	if len(seg) > 0 {
		if !s.hasPending() {
			c.pendingStreams++
		}
		p := s.acquirePending()
		p.B = append(p.B, seg...)
		s.pendingEnd = end
	}
}

// flushStream 续发一条流暂存的响应残余，排空后关闭该流。
func (c *Conn) flushStream(s *Stream) {
	for s.hasPending() {
		seg := s.pending.B[s.pendingPos:]
		n := len(seg)
		if m := int(c.peerMaxFrameSize); n > m {
			n = m
		}
		if avail := s.outflow.available(); int32(n) > avail {
			n = int(avail)
		}
		if n <= 0 {
			return
		}
		s.outflow.take(int32(n))
		last := s.pendingPos+n == len(s.pending.B)
		c.out.B = AppendData(c.out.B, s.id, last && s.pendingEnd, seg[:n])
		s.pendingPos += n
	}
	c.pendingStreams--
	c.closeStream(s)
}

// flushPending 在发送窗口回补后续发各流的暂存残余。
func (c *Conn) flushPending() {
	if c.pendingStreams == 0 {
		return
	}
	for _, s := range c.streams {
		if s.hasPending() {
			c.flushStream(s)
		}
	}
}
