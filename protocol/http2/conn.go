package http2

import (
	"bytes"
	"errors"

	"github.com/const-t/tempesta/common/bytebufferpool"
	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/internal/bytesconv"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/http2/config"
	"github.com/const-t/tempesta/protocol/http2/hpack"
)

var errFrameSync = errs.NewPrivate("帧边界与调用状态不符")

// Conn 是一条 HTTP/2 连接的接收端：校验客户端前言，装配帧首部，
// 把帧载荷分发到流上，维护 HPACK 与流控状态，并把装配完成的请求
// 交给回调。出站的控制帧（SETTINGS、ACK、PING 应答、WINDOW_UPDATE、
// RST_STREAM、GOAWAY）累积在内部缓冲，由调用方在推进间隙冲刷。
//
// 全部状态只属于单一接收协程，不加锁。
type Conn struct {
	onRequest func(*Stream) error

	maxStreams        uint32
	maxFrameSize      uint32
	maxHeaderListSize uint32
	maxBlockBytes     int
	headerTableSize   uint32
	connRecvWindow    int32
	streamRecvWindow  int32

	// 前言与帧首部装配
	prefaceRem int
	hbuf       [frameHeaderLen]byte
	hlen       int

	// 当前帧的消化进度
	inFrame    bool
	fh         FrameHeader
	rem        uint32 // 未消化的载荷字节
	needPadLen bool
	padLen     uint32
	prioRem    uint32
	dataRem    uint32 // 去除前缀与填充后的有效载荷剩余
	skip       bool   // 丢弃本帧有效载荷
	cur        *Stream

	// scratch 累积控制帧载荷，单帧内有效。
	scratch *bytebufferpool.ByteBuffer

	streams      map[uint32]*Stream
	lastStreamID uint32
	openStreams  uint32

	// pendingStreams 计数暂存响应残余的流，为零时跳过续发扫描。
	pendingStreams int

	// contStream 非零表示标头块序列未终结，期间只接受同流的
	// CONTINUATION；contTarget 是块的累积目标。
	contStream uint32
	contTarget *Stream

	hdec *hpack.Decoder
	henc *hpack.Encoder

	peerInitialWindow int32
	peerMaxFrameSize  uint32
	peerGoAway        bool
	peerLastStream    uint32
	gotSettings       bool
	shuttingDown      bool

	inflow  flow // 连接级接收窗口
	outflow flow // 连接级发送窗口

	out *bytebufferpool.ByteBuffer
	err error
}

// NewConn 构造一条连接的接收端并预排本端的首批控制帧：
// SETTINGS 与连接级窗口扩容。cfg 为 nil 时全部取默认值。
func NewConn(cfg *config.Config, onRequest func(*Stream) error) *Conn {
	c := &Conn{
		onRequest:         onRequest,
		streams:           make(map[uint32]*Stream),
		maxStreams:        defaultMaxStreams,
		maxFrameSize:      minMaxFrameSize,
		maxHeaderListSize: defaultMaxHeaderListSize,
		headerTableSize:   defaultHeaderTableSize,
		connRecvWindow:    defaultConnRecvWindow,
		streamRecvWindow:  defaultStreamRecvWindow,
		prefaceRem:        len(bytestr.StrHTTP2Preface),
		scratch:           bytebufferpool.Get(),
		out:               bytebufferpool.Get(),
		peerInitialWindow: initialWindowSize,
		peerMaxFrameSize:  minMaxFrameSize,
	}
	if cfg != nil {
		if cfg.MaxConcurrentStreams > 0 {
			c.maxStreams = cfg.MaxConcurrentStreams
		}
		if cfg.MaxReadFrameSize >= minMaxFrameSize && cfg.MaxReadFrameSize <= maxMaxFrameSize {
			c.maxFrameSize = cfg.MaxReadFrameSize
		}
		if cfg.MaxHeaderListSize > 0 {
			c.maxHeaderListSize = cfg.MaxHeaderListSize
		}
		if cfg.HeaderTableSize > 0 {
			c.headerTableSize = cfg.HeaderTableSize
		}
		if cfg.MaxUploadBufferPerConnection >= initialWindowSize {
			c.connRecvWindow = cfg.MaxUploadBufferPerConnection
		}
		if cfg.MaxUploadBufferPerStream > 0 && cfg.MaxUploadBufferPerStream <= maxWindow {
			c.streamRecvWindow = cfg.MaxUploadBufferPerStream
		}
	}
	c.hdec = hpack.NewDecoder(c.headerTableSize)
	c.henc = hpack.NewEncoder(c.headerTableSize)
	c.maxBlockBytes = 2*int(c.maxHeaderListSize) + 1024
	c.inflow.add(initialWindowSize)
	c.outflow.add(initialWindowSize)
	c.out.B = AppendSettings(c.out.B,
		Setting{SettingHeaderTableSize, c.headerTableSize},
		Setting{SettingMaxFrameSize, c.maxFrameSize},
		Setting{SettingMaxConcurrentStreams, c.maxStreams},
		Setting{SettingInitialWindowSize, uint32(c.streamRecvWindow)},
		Setting{SettingMaxHeaderListSize, c.maxHeaderListSize},
	)
	if delta := c.connRecvWindow - initialWindowSize; delta > 0 {
		c.inflow.add(delta)
		c.out.B = AppendWindowUpdate(c.out.B, 0, uint32(delta))
	}
	return c
}

// PendingOutput 返回待冲刷的出站帧字节。切片在下一次推进前有效。
func (c *Conn) PendingOutput() []byte {
	if c.out == nil {
		return nil
	}
	return c.out.B
}

// ClearOutput 在冲刷完成后清空出站缓冲。
func (c *Conn) ClearOutput() {
	if c.out != nil {
		c.out.Reset()
	}
}

// Stream 返回 id 对应的活动流，不存在时为 nil。
func (c *Conn) Stream(id uint32) *Stream {
	return c.streams[id]
}

// LastStreamID 返回对端已触达的最高流标识。
func (c *Conn) LastStreamID() uint32 {
	return c.lastStreamID
}

// NumActiveStreams 返回当前打开的流数。
func (c *Conn) NumActiveStreams() uint32 {
	return c.openStreams
}

// CloseStream 立即丢弃一条流。取消不需要任何线上清理，
// 流上暂存的响应残余一并放弃。
func (c *Conn) CloseStream(id uint32) {
	if s := c.streams[id]; s != nil {
		c.closeStream(s)
	}
}

// Shutdown 排队 NO_ERROR 的 GOAWAY，宣告连接进入收尾：
// 已开的流照常推进，新流一到即被拒绝。
func (c *Conn) Shutdown() {
	if c.shuttingDown {
		return
	}
	c.shuttingDown = true
	c.out.B = AppendGoAway(c.out.B, c.lastStreamID, ErrCodeNo, nil)
}

// ShuttingDown 报告连接是否已进入收尾。
func (c *Conn) ShuttingDown() bool {
	return c.shuttingDown
}

// Close 释放连接持有的全部流与缓冲，此后任何推进都失败。
func (c *Conn) Close() {
	for _, s := range c.streams {
		c.closeStream(s)
	}
	if c.contTarget != nil && c.contTarget.refused {
		c.contTarget.release()
	}
	c.contStream, c.contTarget = 0, nil
	c.cur = nil
	if c.scratch != nil {
		bytebufferpool.Put(c.scratch)
		c.scratch = nil
	}
	if c.out != nil {
		bytebufferpool.Put(c.out)
		c.out = nil
	}
	if c.err == nil {
		c.err = errs.ErrConnectionClosed
	}
}

// Receive 消化一段入站字节：前言、帧首部与帧载荷都可以在任意
// 位置断开。返回已消化的字节数；连接级违例终止推进并返回拦截
// 错误，流级违例在排队 RST_STREAM 后继续消化后续帧。
func (c *Conn) Receive(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	i := 0
	for {
		if c.prefaceRem > 0 {
			if i >= len(p) {
				break
			}
			n := len(p) - i
			if n > c.prefaceRem {
				n = c.prefaceRem
			}
			off := len(bytestr.StrHTTP2Preface) - c.prefaceRem
			if !bytes.Equal(p[i:i+n], bytestr.StrHTTP2Preface[off:off+n]) {
				return i, c.connFail(ErrCodeProtocol, "客户端前言不匹配")
			}
			c.prefaceRem -= n
			i += n
			continue
		}
		if !c.inFrame {
			if i >= len(p) {
				break
			}
			n := copy(c.hbuf[c.hlen:], p[i:])
			c.hlen += n
			i += n
			if c.hlen < frameHeaderLen {
				break
			}
			c.hlen = 0
			if err := c.BeginFrame(parseFrameHeader(c.hbuf[:])); err != nil {
				var se StreamError
				if !errors.As(err, &se) {
					return i, err
				}
				// 流已重置，帧载荷照常吞掉
			}
		}
		n, err := c.ParseFramePayload(p[i:])
		i += n
		if err == nil {
			continue
		}
		if errors.Is(err, errs.ErrNeedMore) {
			break
		}
		var se StreamError
		if errors.As(err, &se) {
			continue
		}
		return i, err
	}
	return i, nil
}

// BeginFrame 校验帧首部并建立当前帧的消化状态。帧首部须由调用方
// 先行装配（Receive 自带装配）。连接级违例返回拦截错误并使连接
// 失效；流级违例排队 RST_STREAM 后返回，载荷仍须喂给
// ParseFramePayload 消化。
func (c *Conn) BeginFrame(h FrameHeader) error {
	if c.err != nil {
		return c.err
	}
	if c.inFrame {
		return errFrameSync
	}
	if h.Length > c.maxFrameSize {
		return c.connFail(ErrCodeFrameSize, "帧载荷超出 MAX_FRAME_SIZE")
	}
	if !c.gotSettings && h.Type != FrameSettings {
		return c.connFail(ErrCodeProtocol, "前言后的首帧必须是 SETTINGS")
	}
	if c.contStream != 0 && h.Type != FrameContinuation {
		if h.Type == FrameData && h.Length == 0 {
			// 标头块未终结时的零长 DATA：吞掉，不推进也不定罪
			c.enterFrame(h)
			c.skip = true
			return nil
		}
		return c.connFail(ErrCodeProtocol, "标头块序列被其他帧打断")
	}
	switch h.Type {
	case FrameData:
		return c.beginData(h)
	case FrameHeaders:
		return c.beginHeaders(h)
	case FrameContinuation:
		if c.contStream == 0 {
			return c.connFail(ErrCodeProtocol, "孤立的 CONTINUATION")
		}
		if h.StreamID != c.contStream {
			return c.connFail(ErrCodeProtocol, "CONTINUATION 的流标识与序列不符")
		}
		c.enterFrame(h)
		c.cur = c.contTarget
		c.dataRem = h.Length
	case FrameSettings:
		if h.StreamID != 0 {
			return c.connFail(ErrCodeProtocol, "SETTINGS 须落在流 0")
		}
		if h.Flags.Has(FlagAck) && h.Length != 0 {
			return c.connFail(ErrCodeFrameSize, "SETTINGS 确认帧须为空载荷")
		}
		if h.Length%6 != 0 {
			return c.connFail(ErrCodeFrameSize, "SETTINGS 载荷长度须为 6 的倍数")
		}
		c.gotSettings = true
		c.enterControl(h)
	case FramePing:
		if h.StreamID != 0 {
			return c.connFail(ErrCodeProtocol, "PING 须落在流 0")
		}
		if h.Length != 8 {
			return c.connFail(ErrCodeFrameSize, "PING 载荷须为 8 字节")
		}
		c.enterControl(h)
	case FrameGoAway:
		if h.StreamID != 0 {
			return c.connFail(ErrCodeProtocol, "GOAWAY 须落在流 0")
		}
		if h.Length < 8 {
			return c.connFail(ErrCodeFrameSize, "GOAWAY 载荷不足")
		}
		c.enterControl(h)
	case FrameWindowUpdate:
		if h.Length != 4 {
			return c.connFail(ErrCodeFrameSize, "WINDOW_UPDATE 载荷须为 4 字节")
		}
		c.enterControl(h)
	case FrameRSTStream:
		if h.StreamID == 0 {
			return c.connFail(ErrCodeProtocol, "RST_STREAM 不得落在流 0")
		}
		if h.Length != 4 {
			return c.connFail(ErrCodeFrameSize, "RST_STREAM 载荷须为 4 字节")
		}
		if h.StreamID%2 == 0 || h.StreamID > c.lastStreamID {
			return c.connFail(ErrCodeProtocol, "RST_STREAM 落在 idle 流")
		}
		c.enterControl(h)
	case FramePriority:
		if h.StreamID == 0 {
			return c.connFail(ErrCodeProtocol, "PRIORITY 不得落在流 0")
		}
		if h.Length != 5 {
			// 长度违例仅重置所在流（RFC 9113 §6.3）
			c.enterFrame(h)
			c.skip = true
			c.dataRem = h.Length
			return c.streamFail(c.streams[h.StreamID], h.StreamID,
				ErrCodeFrameSize, "PRIORITY 载荷须为 5 字节")
		}
		c.enterControl(h)
	case FramePushPromise:
		return c.connFail(ErrCodeProtocol, "客户端不得发送 PUSH_PROMISE")
	default:
		// 未知类型按规范忽略
		c.enterFrame(h)
		c.skip = true
		c.dataRem = h.Length
	}
	return nil
}

func (c *Conn) enterFrame(h FrameHeader) {
	c.fh = h
	c.inFrame = true
	c.rem = h.Length
	c.needPadLen = false
	c.padLen = 0
	c.prioRem = 0
	c.dataRem = 0
	c.skip = false
	c.cur = nil
}

func (c *Conn) enterControl(h FrameHeader) {
	c.enterFrame(h)
	c.dataRem = h.Length
	c.scratch.Reset()
}

func (c *Conn) beginData(h FrameHeader) error {
	if h.StreamID == 0 {
		return c.connFail(ErrCodeProtocol, "DATA 不得落在流 0")
	}
	if h.Flags.Has(FlagPadded) && h.Length < 1 {
		return c.connFail(ErrCodeFrameSize, "填充帧缺少长度字节")
	}
	// 载荷含填充整体计入接收窗口
	if int32(h.Length) > c.inflow.available() {
		return c.connFail(ErrCodeFlowControl, "连接接收窗口不足")
	}
	c.inflow.take(int32(h.Length))
	c.enterFrame(h)
	if h.Flags.Has(FlagPadded) {
		c.needPadLen = true
	} else {
		c.dataRem = h.Length
	}
	s := c.streams[h.StreamID]
	switch {
	case s == nil && (h.StreamID%2 == 0 || h.StreamID > c.lastStreamID):
		if h.Length == 0 {
			// 标头未至的零长 DATA：不推进也不定罪，等待后续帧
			c.skip = true
			return nil
		}
		return c.connFail(ErrCodeProtocol, "DATA 先于 HEADERS 到达")
	case s == nil:
		c.skip = true
		return c.streamFail(nil, h.StreamID, ErrCodeStreamClosed, "DATA 落在已关闭的流")
	case s.endStream:
		c.skip = true
		return c.streamFail(s, s.id, ErrCodeStreamClosed, "DATA 落在已半关的流")
	}
	if int32(h.Length) > s.inflow.available() {
		c.skip = true
		return c.streamFail(s, s.id, ErrCodeFlowControl, "流接收窗口不足")
	}
	s.inflow.take(int32(h.Length))
	c.cur = s
	if !c.needPadLen {
		return c.startData()
	}
	return nil
}

// startData 在有效载荷长度确定后运行帧级正文校验。
func (c *Conn) startData() error {
	s := c.cur
	if s == nil || c.dataRem == 0 {
		return nil
	}
	if s.req.Method().Bodyless() {
		c.skip = true
		c.cur = nil
		return c.streamFail(s, s.id, ErrCodeProtocol, "该方法的请求不得携带正文")
	}
	if s.clSeen && s.bodyBytes+uint64(c.dataRem) > s.declared {
		c.skip = true
		c.cur = nil
		return c.streamFail(s, s.id, ErrCodeProtocol, "正文超出 Content-Length 声明")
	}
	return nil
}

func (c *Conn) beginHeaders(h FrameHeader) error {
	if h.StreamID == 0 {
		return c.connFail(ErrCodeProtocol, "HEADERS 不得落在流 0")
	}
	if h.StreamID%2 == 0 {
		return c.connFail(ErrCodeProtocol, "客户端流标识须为奇数")
	}
	var minLen uint32
	if h.Flags.Has(FlagPadded) {
		minLen++
	}
	if h.Flags.Has(FlagPriority) {
		minLen += 5
	}
	if h.Length < minLen {
		return c.connFail(ErrCodeFrameSize, "HEADERS 载荷短于前缀")
	}
	c.enterFrame(h)
	if h.Flags.Has(FlagPadded) {
		c.needPadLen = true
	}
	if h.Flags.Has(FlagPriority) {
		c.prioRem = 5
	}
	if !c.needPadLen {
		c.dataRem = h.Length - c.prioRem
	}

	var target *Stream
	if s := c.streams[h.StreamID]; s != nil {
		switch {
		case s.endStream:
			// 半关后的再度 HEADERS：原流作废；新块仍须解码以保持
			// 压缩索引同步，终结时以 STREAM_CLOSED 重置
			c.closeStream(s)
			target = &Stream{id: h.StreamID, refused: true, refuseCode: ErrCodeStreamClosed}
		case s.headersDone:
			// 尾标头块
			s.trailers = true
			if !h.Flags.Has(FlagEndStream) {
				s.fail(ErrCodeProtocol, "尾标头缺少 END_STREAM")
			}
			s.endStream = true
			target = s
		default:
			return c.connFail(ErrCodeProtocol, "标头块序列状态错乱")
		}
	} else {
		if h.StreamID <= c.lastStreamID {
			return c.connFail(ErrCodeProtocol, "流标识回退或复用")
		}
		c.lastStreamID = h.StreamID
		switch {
		case c.peerGoAway || c.shuttingDown || c.openStreams >= c.maxStreams:
			target = &Stream{id: h.StreamID, refused: true, refuseCode: ErrCodeRefusedStream}
		default:
			ns := c.openStream(h.StreamID)
			if h.Flags.Has(FlagEndStream) {
				ns.endStream = true
			}
			target = ns
		}
	}
	c.cur = target
	c.contStream = h.StreamID
	c.contTarget = target
	return nil
}

// ParseFramePayload 消化当前帧的一段载荷。载荷未到齐时返回
// ErrNeedMore，帧终结时返回 nil 或该帧引发的违例。
func (c *Conn) ParseFramePayload(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if !c.inFrame {
		return 0, errFrameSync
	}
	i := 0
	if c.needPadLen && c.rem > 0 {
		if i >= len(p) {
			return i, errs.ErrNeedMore
		}
		c.padLen = uint32(p[i])
		i++
		c.rem--
		c.needPadLen = false
		if c.padLen+c.prioRem > c.rem {
			return i, c.connFail(ErrCodeProtocol, "填充长度超出帧载荷")
		}
		c.dataRem = c.rem - c.prioRem - c.padLen
		if c.fh.Type == FrameData {
			if err := c.startData(); err != nil {
				return i, err
			}
		}
	}
	for c.prioRem > 0 {
		if i >= len(p) {
			return i, errs.ErrNeedMore
		}
		n := len(p) - i
		if n > int(c.prioRem) {
			n = int(c.prioRem)
		}
		i += n
		c.prioRem -= uint32(n)
		c.rem -= uint32(n)
	}
	for c.dataRem > 0 && i < len(p) {
		n := len(p) - i
		if n > int(c.dataRem) {
			n = int(c.dataRem)
		}
		seg := p[i : i+n]
		switch c.fh.Type {
		case FrameData:
			if !c.skip && c.cur != nil {
				body := c.cur.acquireBody()
				body.B = append(body.B, seg...)
				c.cur.bodyBytes += uint64(n)
			}
		case FrameHeaders, FrameContinuation:
			if c.cur != nil {
				blk := c.cur.acquireBlock()
				if len(blk.B)+n > c.maxBlockBytes {
					return i, c.connFail(ErrCodeEnhanceYourCalm, "标头块累积超限")
				}
				blk.B = append(blk.B, seg...)
			}
		default:
			if !c.skip {
				c.scratch.B = append(c.scratch.B, seg...)
			}
		}
		i += n
		c.dataRem -= uint32(n)
		c.rem -= uint32(n)
	}
	// 剩余的 rem 全是帧尾填充
	if c.dataRem == 0 && c.rem > 0 && i < len(p) {
		n := len(p) - i
		if n > int(c.rem) {
			n = int(c.rem)
		}
		i += n
		c.rem -= uint32(n)
	}
	if c.rem > 0 {
		return i, errs.ErrNeedMore
	}
	err := c.finishFrame()
	c.inFrame = false
	c.cur = nil
	c.skip = false
	return i, err
}

// finishFrame 在载荷消化完毕后执行帧的终结动作。
func (c *Conn) finishFrame() error {
	h := c.fh
	switch h.Type {
	case FrameData:
		if h.Length > 0 {
			// 载荷已消化，立即回补窗口
			c.inflow.add(int32(h.Length))
			c.out.B = AppendWindowUpdate(c.out.B, 0, h.Length)
			if s := c.cur; s != nil && !c.skip && !h.Flags.Has(FlagEndStream) {
				s.inflow.add(int32(h.Length))
				c.out.B = AppendWindowUpdate(c.out.B, s.id, h.Length)
			}
		}
		if s := c.cur; s != nil && !c.skip && h.Flags.Has(FlagEndStream) {
			s.endStream = true
			return c.finishRequest(s)
		}
	case FrameHeaders, FrameContinuation:
		if h.Flags.Has(FlagEndHeaders) {
			return c.finishHeaderBlock()
		}
	case FrameSettings:
		return c.applySettings(h)
	case FramePing:
		if !h.Flags.Has(FlagAck) {
			var data [8]byte
			copy(data[:], c.scratch.B)
			c.out.B = AppendPing(c.out.B, true, data)
		}
	case FrameGoAway:
		b := c.scratch.B
		c.peerGoAway = true
		c.peerLastStream = (uint32(b[0])<<24 | uint32(b[1])<<16 |
			uint32(b[2])<<8 | uint32(b[3])) & 0x7fffffff
	case FrameWindowUpdate:
		return c.applyWindowUpdate(h)
	case FrameRSTStream:
		// 对端取消：直接丢弃，无须任何清理动作
		if s := c.streams[h.StreamID]; s != nil {
			c.closeStream(s)
		}
	case FramePriority:
		if c.skip {
			// 长度违例已在帧首定罪
			break
		}
		b := c.scratch.B
		dep := (uint32(b[0])<<24 | uint32(b[1])<<16 |
			uint32(b[2])<<8 | uint32(b[3])) & 0x7fffffff
		if dep == h.StreamID {
			return c.streamFail(c.streams[h.StreamID], h.StreamID,
				ErrCodeProtocol, "流不得以自身为依赖")
		}
	}
	return nil
}

// finishHeaderBlock 在 END_HEADERS 后解码整块并终结标头阶段。
func (c *Conn) finishHeaderBlock() error {
	s := c.cur
	c.contStream = 0
	c.contTarget = nil
	if err := c.decodeBlock(s); err != nil {
		return c.connAbort(err)
	}
	if s.refused {
		err := streamError(s.id, s.refuseCode, "流被拒绝")
		c.out.B = AppendRSTStream(c.out.B, s.id, s.refuseCode)
		s.release()
		return err
	}
	if s.malformed == nil && !s.headersDone {
		c.checkHeaders(s)
		s.headersDone = true
	}
	if s.malformed != nil {
		return c.rejectStream(s, s.malformed)
	}
	if s.endStream {
		return c.finishRequest(s)
	}
	return nil
}

func (c *Conn) decodeBlock(s *Stream) error {
	var blk []byte
	if s.block != nil {
		blk = s.block.B[s.decoded:]
	}
	arena := s.acquireArena()
	err := c.hdec.Decode(blk, arena, func(f hpack.Field) error {
		return c.emitField(s, f)
	})
	if s.block != nil {
		s.decoded = len(s.block.B)
	}
	if err != nil {
		return compressionError(err)
	}
	return nil
}

// emitField 逐字段装配请求。语义违例只登记不中断：整块解码必须
// 走完以保持压缩索引同步，重置推迟到块终结。
func (c *Conn) emitField(s *Stream, f hpack.Field) error {
	if s.refused {
		return nil
	}
	s.listSize += uint32(len(f.Name)+len(f.Value)) + fieldOverhead
	if s.listSize > c.maxHeaderListSize {
		s.fail(ErrCodeProtocol, "标头列表尺寸超限")
	}
	if s.malformed != nil {
		return nil
	}
	if len(f.Name) > 0 && f.Name[0] == ':' {
		c.pseudoField(s, f)
		return nil
	}
	s.sawRegular = true
	if !validFieldName(f.Name) {
		s.fail(ErrCodeProtocol, "字段名非法或含大写")
		return nil
	}
	if !validFieldValue(f.Value) {
		s.fail(ErrCodeProtocol, "字段值含非法字节或首尾空白")
		return nil
	}
	switch {
	case bytes.Equal(f.Name, strConnection),
		bytes.Equal(f.Name, strKeepAlive),
		bytes.Equal(f.Name, strProxyConnection),
		bytes.Equal(f.Name, strTransferEncoding),
		bytes.Equal(f.Name, strUpgrade):
		s.fail(ErrCodeProtocol, "连接专属字段不得进入 HTTP/2")
		return nil
	case bytes.Equal(f.Name, strTE):
		if !eqFoldASCII(f.Value, strTrailersOnly) {
			s.fail(ErrCodeProtocol, "te 仅允许 trailers")
			return nil
		}
	case bytes.Equal(f.Name, strContentLength):
		if s.trailers {
			s.fail(ErrCodeProtocol, "尾标头含被禁止的字段")
			return nil
		}
		v, err := bytesconv.ParseUint64Strict(f.Value)
		if err != nil {
			s.fail(ErrCodeProtocol, "Content-Length 非法")
			return nil
		}
		if s.clSeen && v != s.declared {
			s.fail(ErrCodeProtocol, "Content-Length 重复且不一致")
			return nil
		}
		s.clSeen = true
		s.declared = v
	case bytes.Equal(f.Name, strHost):
		if s.trailers {
			s.fail(ErrCodeProtocol, "尾标头含被禁止的字段")
			return nil
		}
		if s.hostSeen {
			if !bytes.Equal(f.Value, s.hostVal) {
				s.fail(ErrCodeProtocol, "Host 重复且不一致")
				return nil
			}
		} else {
			s.hostSeen = true
			s.hostVal = f.Value
			if s.hasAuthority && !s.req.Authority().Empty() &&
				!s.req.Authority().Eq(f.Value) {
				s.fail(ErrCodeProtocol, ":authority 与 Host 不一致")
				return nil
			}
		}
	}
	fld := s.req.Header.Push()
	fld.Name.Append(f.Name, protocol.ChunkFlagName)
	fld.Value.Append(f.Value, protocol.ChunkFlagValue)
	fld.Sensitive = f.Sensitive
	if s.trailers {
		fld.Trailer = true
		s.req.SetFlag(protocol.FlagTrailers)
	}
	return nil
}

func (c *Conn) pseudoField(s *Stream, f hpack.Field) {
	if s.sawRegular {
		s.fail(ErrCodeProtocol, "伪标头出现在常规字段之后")
		return
	}
	if s.trailers {
		s.fail(ErrCodeProtocol, "尾标头不得携带伪标头")
		return
	}
	switch {
	case bytes.Equal(f.Name, bytestr.StrPseudoMethod):
		if s.hasMethod {
			s.fail(ErrCodeProtocol, "伪标头重复")
			return
		}
		s.hasMethod = true
		m := protocol.ParseMethod(f.Value)
		if m == protocol.MethodUnknown {
			s.fail(ErrCodeProtocol, "请求方法未注册")
			return
		}
		s.req.SetMethod(m)
	case bytes.Equal(f.Name, bytestr.StrPseudoScheme):
		if s.hasScheme {
			s.fail(ErrCodeProtocol, "伪标头重复")
			return
		}
		s.hasScheme = true
		if !validScheme(f.Value) {
			s.fail(ErrCodeProtocol, ":scheme 非法")
			return
		}
		s.req.Scheme().Append(f.Value, 0)
	case bytes.Equal(f.Name, bytestr.StrPseudoPath):
		if s.hasPath {
			s.fail(ErrCodeProtocol, "伪标头重复")
			return
		}
		s.hasPath = true
		if len(f.Value) == 0 {
			s.fail(ErrCodeProtocol, ":path 不得为空")
			return
		}
		flags, ok := checkPath(f.Value)
		if !ok {
			s.fail(ErrCodeProtocol, ":path 含非法字节或残缺转义")
			return
		}
		s.req.URI().Append(f.Value, flags)
	case bytes.Equal(f.Name, bytestr.StrPseudoAuthority):
		if s.hasAuthority {
			s.fail(ErrCodeProtocol, "伪标头重复")
			return
		}
		s.hasAuthority = true
		if len(f.Value) == 0 {
			// 空 authority 视同缺席，交由 Host 兜底
			return
		}
		if !validAuthority(f.Value) {
			s.fail(ErrCodeProtocol, ":authority 非法")
			return
		}
		s.req.Authority().Append(f.Value, 0)
	default:
		s.fail(ErrCodeProtocol, "伪标头未注册或不属于请求")
	}
}

// checkHeaders 在首个标头块终结时运行跨字段校验。
func (c *Conn) checkHeaders(s *Stream) {
	if !s.hasMethod || !s.hasScheme || !s.hasPath {
		s.fail(ErrCodeProtocol, "缺少必需伪标头")
		return
	}
	m := s.req.Method()
	uri := s.req.URI()
	if !uri.Empty() {
		switch first := uri.ChunkAt(0).Data()[0]; {
		case first == '/':
		case first == '*' && uri.Len() == 1 && m == protocol.MethodOptions:
		default:
			s.fail(ErrCodeProtocol, ":path 形式非法")
			return
		}
	}
	if s.req.Authority().Empty() {
		if !s.hostSeen {
			s.fail(ErrCodeProtocol, "缺少 :authority 与 Host")
			return
		}
		if len(s.hostVal) == 0 {
			s.fail(ErrCodeProtocol, "Host 值为空")
			return
		}
	}
	if m.Bodyless() && s.clSeen && s.declared > 0 {
		// 无正文方法在标头终结处定罪，不等 DATA
		s.fail(ErrCodeProtocol, "该方法的请求不得携带正文")
		return
	}
	if s.clSeen {
		s.req.SetContentLength(s.declared)
	}
}

// finishRequest 在对端半关（END_STREAM）时终结请求：终验定界、
// 挂载正文并交付回调。
func (c *Conn) finishRequest(s *Stream) error {
	s.state = StreamHalfClosedRemote
	if s.clSeen && s.bodyBytes != s.declared {
		return c.rejectStream(s, streamError(s.id, ErrCodeProtocol,
			"正文长度与 Content-Length 不符"))
	}
	if !s.clSeen && s.bodyBytes > 0 {
		s.req.SetContentLength(s.bodyBytes)
	}
	if s.body != nil && s.body.Len() > 0 {
		s.req.Body().Append(s.body.B, 0)
	}
	s.req.SetFlag(protocol.FlagComplete)
	if c.onRequest != nil {
		err := c.onRequest(s)
		if err != nil {
			c.closeStream(s)
			return c.connAbort(connError(ErrCodeInternal, err.Error()))
		}
		// 残余未排空的流等 WINDOW_UPDATE 续发后再关
		if !s.hasPending() {
			c.closeStream(s)
		}
	}
	return nil
}

// FinishRequest 取走流上已装配完成的请求。未用回调驱动时，调用方
// 在 END_STREAM 后据此取得请求。请求字节借用流的缓冲，用毕须以
// CloseStream 释放。
func (c *Conn) FinishRequest(s *Stream) (*protocol.Request, error) {
	if s == nil || s.req == nil {
		return nil, errFrameSync
	}
	if !s.req.Complete() {
		return nil, errs.ErrNeedMore
	}
	return s.req, nil
}

func (c *Conn) applySettings(h FrameHeader) error {
	if h.Flags.Has(FlagAck) {
		return nil
	}
	b := c.scratch.B
	for len(b) >= 6 {
		st := Setting{
			ID:  SettingID(uint16(b[0])<<8 | uint16(b[1])),
			Val: uint32(b[2])<<24 | uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5]),
		}
		b = b[6:]
		if err := st.Valid(); err != nil {
			return c.connAbort(err)
		}
		switch st.ID {
		case SettingHeaderTableSize:
			// 对端解码表的容量上限；本端编码器跟随但封顶
			n := st.Val
			if n > c.headerTableSize {
				n = c.headerTableSize
			}
			c.henc.SetCapacity(n)
		case SettingInitialWindowSize:
			delta := int32(st.Val) - c.peerInitialWindow
			c.peerInitialWindow = int32(st.Val)
			for _, os := range c.streams {
				if !os.outflow.add(delta) {
					return c.connFail(ErrCodeFlowControl,
						"INITIAL_WINDOW_SIZE 调整令窗口溢出")
				}
			}
		case SettingMaxFrameSize:
			c.peerMaxFrameSize = st.Val
		}
	}
	c.out.B = AppendSettingsAck(c.out.B)
	c.flushPending()
	return nil
}

func (c *Conn) applyWindowUpdate(h FrameHeader) error {
	b := c.scratch.B
	incr := (uint32(b[0])<<24 | uint32(b[1])<<16 |
		uint32(b[2])<<8 | uint32(b[3])) & 0x7fffffff
	if incr == 0 {
		if h.StreamID == 0 {
			return c.connFail(ErrCodeProtocol, "WINDOW_UPDATE 增量为零")
		}
		return c.streamFail(c.streams[h.StreamID], h.StreamID,
			ErrCodeProtocol, "WINDOW_UPDATE 增量为零")
	}
	if h.StreamID == 0 {
		if !c.outflow.add(int32(incr)) {
			return c.connFail(ErrCodeFlowControl, "连接发送窗口溢出")
		}
		c.flushPending()
		return nil
	}
	s := c.streams[h.StreamID]
	if s == nil {
		if h.StreamID%2 == 0 || h.StreamID > c.lastStreamID {
			return c.connFail(ErrCodeProtocol, "WINDOW_UPDATE 落在 idle 流")
		}
		// 已关闭的流，容忍迟到的回补
		return nil
	}
	if !s.outflow.add(int32(incr)) {
		return c.streamFail(s, s.id, ErrCodeFlowControl, "流发送窗口溢出")
	}
	if s.hasPending() {
		c.flushStream(s)
	}
	return nil
}

func (c *Conn) openStream(id uint32) *Stream {
	s := &Stream{
		id:    id,
		state: StreamOpen,
		req:   protocol.AcquireRequest(),
	}
	s.req.SetVersion(protocol.Version2)
	s.req.SetFlag(protocol.FlagHTTP2)
	s.inflow.add(c.streamRecvWindow)
	s.outflow.setConnFlow(&c.outflow)
	s.outflow.add(c.peerInitialWindow)
	c.streams[id] = s
	c.openStreams++
	return s
}

func (c *Conn) closeStream(s *Stream) {
	if s.state == StreamClosed {
		return
	}
	s.state = StreamClosed
	if !s.refused {
		c.openStreams--
	}
	if s.hasPending() {
		c.pendingStreams--
	}
	delete(c.streams, s.id)
	if c.contTarget == s {
		c.contStream, c.contTarget = 0, nil
	}
	s.release()
}

// streamFail 排队 RST_STREAM 并关闭所在流，返回流级拦截错误。
func (c *Conn) streamFail(s *Stream, id uint32, code ErrCode, reason string) error {
	c.out.B = AppendRSTStream(c.out.B, id, code)
	if s != nil {
		c.closeStream(s)
	}
	return streamError(id, code, reason)
}

// rejectStream 以 err 携带的错误码重置流。
func (c *Conn) rejectStream(s *Stream, err error) error {
	code := ErrCodeProtocol
	var se StreamError
	if errors.As(err, &se) {
		code = se.Code
	}
	c.out.B = AppendRSTStream(c.out.B, s.id, code)
	c.closeStream(s)
	return err
}

// connAbort 使连接失效并排队 GOAWAY，错误粘滞。
func (c *Conn) connAbort(err error) error {
	if c.err == nil {
		c.err = err
		code := ErrCodeProtocol
		var ce ConnError
		if errors.As(err, &ce) {
			code = ce.Code
		}
		c.out.B = AppendGoAway(c.out.B, c.lastStreamID, code, nil)
	}
	return c.err
}

func (c *Conn) connFail(code ErrCode, reason string) error {
	return c.connAbort(connError(code, reason))
}
