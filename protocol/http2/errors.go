package http2

import (
	"fmt"

	errs "github.com/const-t/tempesta/common/errors"
)

// ErrCode 是 RFC 9113 §7 的错误码，随 RST_STREAM 与 GOAWAY 传递。
type ErrCode uint32

const (
	ErrCodeNo                 ErrCode = 0x0
	ErrCodeProtocol           ErrCode = 0x1
	ErrCodeInternal           ErrCode = 0x2
	ErrCodeFlowControl        ErrCode = 0x3
	ErrCodeSettingsTimeout    ErrCode = 0x4
	ErrCodeStreamClosed       ErrCode = 0x5
	ErrCodeFrameSize          ErrCode = 0x6
	ErrCodeRefusedStream      ErrCode = 0x7
	ErrCodeCancel             ErrCode = 0x8
	ErrCodeCompression        ErrCode = 0x9
	ErrCodeConnect            ErrCode = 0xa
	ErrCodeEnhanceYourCalm    ErrCode = 0xb
	ErrCodeInadequateSecurity ErrCode = 0xc
	ErrCodeHTTP11Required     ErrCode = 0xd
)

var errCodeName = map[ErrCode]string{
	ErrCodeNo:                 "NO_ERROR",
	ErrCodeProtocol:           "PROTOCOL_ERROR",
	ErrCodeInternal:           "INTERNAL_ERROR",
	ErrCodeFlowControl:        "FLOW_CONTROL_ERROR",
	ErrCodeSettingsTimeout:    "SETTINGS_TIMEOUT",
	ErrCodeStreamClosed:       "STREAM_CLOSED",
	ErrCodeFrameSize:          "FRAME_SIZE_ERROR",
	ErrCodeRefusedStream:      "REFUSED_STREAM",
	ErrCodeCancel:             "CANCEL",
	ErrCodeCompression:        "COMPRESSION_ERROR",
	ErrCodeConnect:            "CONNECT_ERROR",
	ErrCodeEnhanceYourCalm:    "ENHANCE_YOUR_CALM",
	ErrCodeInadequateSecurity: "INADEQUATE_SECURITY",
	ErrCodeHTTP11Required:     "HTTP_1_1_REQUIRED",
}

func (e ErrCode) String() string {
	if s, ok := errCodeName[e]; ok {
		return s
	}
	return fmt.Sprintf("unknown error code 0x%x", uint32(e))
}

// ConnError 描述连接级违例。接收方须以携带该码的 GOAWAY 关闭整条连接。
type ConnError struct {
	Code   ErrCode
	Reason string
}

func (e ConnError) Error() string {
	return fmt.Sprintf("连接错误 %v: %s", e.Code, e.Reason)
}

// StreamError 描述流级违例。仅以携带该码的 RST_STREAM 重置所在流，
// 连接与压缩上下文继续存活。
type StreamError struct {
	StreamID uint32
	Code     ErrCode
	Reason   string
}

func (e StreamError) Error() string {
	return fmt.Sprintf("流 %d 错误 %v: %s", e.StreamID, e.Code, e.Reason)
}

func connError(code ErrCode, reason string) *errs.Error {
	return errs.New(ConnError{Code: code, Reason: reason}, errs.ErrorTypeConnection, nil)
}

func streamError(id uint32, code ErrCode, reason string) *errs.Error {
	return errs.New(StreamError{StreamID: id, Code: code, Reason: reason}, errs.ErrorTypeStream, nil)
}

// compressionError 包装 HPACK 解码失败。压缩上下文自此不可信，
// 连接必须以 COMPRESSION_ERROR 关闭。
func compressionError(err error) *errs.Error {
	return errs.New(
		ConnError{Code: ErrCodeCompression, Reason: err.Error()},
		errs.ErrorTypeCompression, nil,
	)
}
