package http2

import "fmt"

// 每帧首部定长 9 字节：24 位载荷长度、8 位类型、8 位标志、
// 1 位保留与 31 位流标识（RFC 9113 §4.1）。
const frameHeaderLen = 9

// FrameType 标识帧首部中的 8 位类型字段。
type FrameType uint8

const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameRSTStream    FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9
)

var frameName = map[FrameType]string{
	FrameData:         "DATA",
	FrameHeaders:      "HEADERS",
	FramePriority:     "PRIORITY",
	FrameRSTStream:    "RST_STREAM",
	FrameSettings:     "SETTINGS",
	FramePushPromise:  "PUSH_PROMISE",
	FramePing:         "PING",
	FrameGoAway:       "GOAWAY",
	FrameWindowUpdate: "WINDOW_UPDATE",
	FrameContinuation: "CONTINUATION",
}

func (t FrameType) String() string {
	if s, ok := frameName[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_FRAME_TYPE_%d", uint8(t))
}

// Flags 是帧首部中的 8 位标志字段，取值语义取决于帧类型。
// 未定义的位到达时被忽略。
type Flags uint8

const (
	// FlagEndStream 用于 DATA 与 HEADERS：对端半关所在流。
	FlagEndStream Flags = 0x1

	// FlagAck 用于 SETTINGS 与 PING，与 FlagEndStream 同位。
	FlagAck Flags = 0x1

	// FlagEndHeaders 终结 HEADERS 起始的标头块序列。
	FlagEndHeaders Flags = 0x4

	// FlagPadded 表示载荷前缀携带 1 字节填充长度。
	FlagPadded Flags = 0x8

	// FlagPriority 表示 HEADERS 载荷携带 5 字节优先级前缀。
	FlagPriority Flags = 0x20
)

// Has 报告 f 是否含有 v 的全部位。
func (f Flags) Has(v Flags) bool {
	return f&v == v
}

// FrameHeader 是解码后的帧首部。Length 不含首部本身，
// StreamID 的保留位在解码时清零。
type FrameHeader struct {
	Length   uint32
	Type     FrameType
	Flags    Flags
	StreamID uint32
}

func (h FrameHeader) String() string {
	return fmt.Sprintf("[%v flags=0x%x stream=%d len=%d]",
		h.Type, uint8(h.Flags), h.StreamID, h.Length)
}

// parseFrameHeader 解码定长帧首部，b 的前 frameHeaderLen 字节须就绪。
func parseFrameHeader(b []byte) FrameHeader {
	return FrameHeader{
		Length: uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]),
		Type:   FrameType(b[3]),
		Flags:  Flags(b[4]),
		StreamID: (uint32(b[5])<<24 | uint32(b[6])<<16 |
			uint32(b[7])<<8 | uint32(b[8])) & 0x7fffffff,
	}
}
