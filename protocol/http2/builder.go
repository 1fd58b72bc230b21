package http2

// 帧构造为追加式：只负责编码，边界（对端 MAX_FRAME_SIZE 分片等）
// 由调用方把握。

// AppendFrameHeader 追加定长 9 字节帧首部，保留位写零。
func AppendFrameHeader(dst []byte, h FrameHeader) []byte {
	id := h.StreamID & 0x7fffffff
	return append(dst,
		byte(h.Length>>16), byte(h.Length>>8), byte(h.Length),
		byte(h.Type), byte(h.Flags),
		byte(id>>24), byte(id>>16), byte(id>>8), byte(id),
	)
}

// AppendSettings 追加一个携带给定参数的 SETTINGS 帧。
func AppendSettings(dst []byte, settings ...Setting) []byte {
	dst = AppendFrameHeader(dst, FrameHeader{
		Length: uint32(6 * len(settings)),
		Type:   FrameSettings,
	})
	for _, s := range settings {
		dst = append(dst,
			byte(s.ID>>8), byte(s.ID),
			byte(s.Val>>24), byte(s.Val>>16), byte(s.Val>>8), byte(s.Val),
		)
	}
	return dst
}

// AppendSettingsAck 追加一个空载荷的 SETTINGS 确认帧。
func AppendSettingsAck(dst []byte) []byte {
	return AppendFrameHeader(dst, FrameHeader{Type: FrameSettings, Flags: FlagAck})
}

// AppendPing 追加一个 PING 帧，载荷定长 8 字节。
func AppendPing(dst []byte, ack bool, data [8]byte) []byte {
	var flags Flags
	if ack {
		flags = FlagAck
	}
	dst = AppendFrameHeader(dst, FrameHeader{Length: 8, Type: FramePing, Flags: flags})
	return append(dst, data[:]...)
}

// AppendGoAway 追加一个 GOAWAY 帧。debug 原样附在错误码之后。
func AppendGoAway(dst []byte, lastStreamID uint32, code ErrCode, debug []byte) []byte {
	dst = AppendFrameHeader(dst, FrameHeader{
		Length: uint32(8 + len(debug)),
		Type:   FrameGoAway,
	})
	last := lastStreamID & 0x7fffffff
	dst = append(dst,
		byte(last>>24), byte(last>>16), byte(last>>8), byte(last),
		byte(code>>24), byte(code>>16), byte(code>>8), byte(code),
	)
	return append(dst, debug...)
}

// AppendRSTStream 追加一个 RST_STREAM 帧。
func AppendRSTStream(dst []byte, streamID uint32, code ErrCode) []byte {
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   4,
		Type:     FrameRSTStream,
		StreamID: streamID,
	})
	return append(dst, byte(code>>24), byte(code>>16), byte(code>>8), byte(code))
}

// AppendWindowUpdate 追加一个 WINDOW_UPDATE 帧，streamID 为零时
// 作用于连接级窗口。
func AppendWindowUpdate(dst []byte, streamID, incr uint32) []byte {
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   4,
		Type:     FrameWindowUpdate,
		StreamID: streamID,
	})
	incr &= 0x7fffffff
	return append(dst, byte(incr>>24), byte(incr>>16), byte(incr>>8), byte(incr))
}

// AppendData 追加一个不带填充的 DATA 帧。
func AppendData(dst []byte, streamID uint32, endStream bool, data []byte) []byte {
	var flags Flags
	if endStream {
		flags = FlagEndStream
	}
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   uint32(len(data)),
		Type:     FrameData,
		Flags:    flags,
		StreamID: streamID,
	})
	return append(dst, data...)
}

// AppendDataPadded 追加一个带 padLen 字节零填充的 DATA 帧。
func AppendDataPadded(dst []byte, streamID uint32, endStream bool, data []byte, padLen uint8) []byte {
	flags := FlagPadded
	if endStream {
		flags |= FlagEndStream
	}
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   uint32(1 + len(data) + int(padLen)),
		Type:     FrameData,
		Flags:    flags,
		StreamID: streamID,
	})
	dst = append(dst, padLen)
	dst = append(dst, data...)
	for i := 0; i < int(padLen); i++ {
		dst = append(dst, 0)
	}
	return dst
}

// HeadersParam 描述一个待编码的 HEADERS 帧。
type HeadersParam struct {
	StreamID uint32

	// Fragment 是已经 HPACK 编码的标头块（或其首个分片）。
	Fragment []byte

	EndStream  bool
	EndHeaders bool

	// PadLen 非零时帧携带该长度的零填充。
	PadLen uint8

	// Priority 置位时帧携带 5 字节优先级前缀。
	Priority bool
	Dep      uint32
	Weight   uint8
}

// AppendHeaders 追加一个 HEADERS 帧。
func AppendHeaders(dst []byte, p HeadersParam) []byte {
	var flags Flags
	length := uint32(len(p.Fragment))
	if p.EndStream {
		flags |= FlagEndStream
	}
	if p.EndHeaders {
		flags |= FlagEndHeaders
	}
	if p.PadLen > 0 {
		flags |= FlagPadded
		length += 1 + uint32(p.PadLen)
	}
	if p.Priority {
		flags |= FlagPriority
		length += 5
	}
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   length,
		Type:     FrameHeaders,
		Flags:    flags,
		StreamID: p.StreamID,
	})
	if p.PadLen > 0 {
		dst = append(dst, p.PadLen)
	}
	if p.Priority {
		dep := p.Dep & 0x7fffffff
		dst = append(dst, byte(dep>>24), byte(dep>>16), byte(dep>>8), byte(dep), p.Weight)
	}
	dst = append(dst, p.Fragment...)
	for i := 0; i < int(p.PadLen); i++ {
		dst = append(dst, 0)
	}
	return dst
}

// AppendContinuation 追加一个 CONTINUATION 帧。
func AppendContinuation(dst []byte, streamID uint32, endHeaders bool, fragment []byte) []byte {
	var flags Flags
	if endHeaders {
		flags = FlagEndHeaders
	}
	dst = AppendFrameHeader(dst, FrameHeader{
		Length:   uint32(len(fragment)),
		Type:     FrameContinuation,
		Flags:    flags,
		StreamID: streamID,
	})
	return append(dst, fragment...)
}
