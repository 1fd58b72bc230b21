package http2

import "fmt"

// SettingID 标识 SETTINGS 帧中的 16 位参数编号。
type SettingID uint16

const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
)

var settingName = map[SettingID]string{
	SettingHeaderTableSize:      "HEADER_TABLE_SIZE",
	SettingEnablePush:           "ENABLE_PUSH",
	SettingMaxConcurrentStreams: "MAX_CONCURRENT_STREAMS",
	SettingInitialWindowSize:    "INITIAL_WINDOW_SIZE",
	SettingMaxFrameSize:         "MAX_FRAME_SIZE",
	SettingMaxHeaderListSize:    "MAX_HEADER_LIST_SIZE",
}

func (id SettingID) String() string {
	if s, ok := settingName[id]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_SETTING_%d", uint16(id))
}

// Setting 是一条 6 字节编码的 SETTINGS 参数。
type Setting struct {
	ID  SettingID
	Val uint32
}

func (s Setting) String() string {
	return fmt.Sprintf("[%v = %d]", s.ID, s.Val)
}

// Valid 校验取值边界（RFC 9113 §6.5.2）。越界属于连接级违例；
// 未登记的参数编号按规范忽略，恒为合法。
func (s Setting) Valid() error {
	switch s.ID {
	case SettingEnablePush:
		if s.Val != 0 && s.Val != 1 {
			return connError(ErrCodeProtocol, "ENABLE_PUSH 取值非法")
		}
	case SettingInitialWindowSize:
		if s.Val > maxWindow {
			return connError(ErrCodeFlowControl, "INITIAL_WINDOW_SIZE 超出窗口上限")
		}
	case SettingMaxFrameSize:
		if s.Val < minMaxFrameSize || s.Val > maxMaxFrameSize {
			return connError(ErrCodeProtocol, "MAX_FRAME_SIZE 越界")
		}
	}
	return nil
}
