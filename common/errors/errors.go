package errors

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout          = errors.New("timeout")
	ErrIdleTimeout      = errors.New("idle timeout")
	ErrConnectionClosed = errors.New("连接已关闭")
	ErrNothingRead      = errors.New("未读取任何内容")

	// ErrNeedMore 表示当前数据不足以推进解析，须等待更多字节。
	// 该错误是可恢复的挂起信号，不是协议违规。
	ErrNeedMore = errors.New("需要更多数据")

	ErrShortConnection    = errors.New("短链接")
	ErrNotSupportProtocol = errors.New("不支持的协议")
)

type ErrorType uint64

const (
	// ErrorTypeProtocol 表示报文违反线上格式，须阻断该报文。
	ErrorTypeProtocol ErrorType = 1 << iota
	// ErrorTypeStream 表示 HTTP/2 流级错误，须重置该流。
	ErrorTypeStream
	// ErrorTypeConnection 表示 HTTP/2 连接级错误，须关闭该连接。
	ErrorTypeConnection
	// ErrorTypeCompression 表示 HPACK 压缩状态被破坏，须关闭该连接。
	ErrorTypeCompression
	// ErrorTypePrivate 表示一个私有的错误。
	ErrorTypePrivate
	// ErrorTypePublic 表示一个公开的错误。
	ErrorTypePublic
	// ErrorTypeAny 表示任何其他错误。
	ErrorTypeAny
)

// Error 表示一个带有错误类型和元信息的错误规范。
type Error struct {
	Err  error
	Type ErrorType
	Meta any
}

// 返回错误的消息字符串。
func (msg *Error) Error() string {
	return msg.Err.Error()
}

func (msg *Error) Unwrap() error {
	return msg.Err
}

func (msg *Error) IsType(flags ErrorType) bool {
	return (msg.Type & flags) > 0
}

func (msg *Error) SetType(flags ErrorType) *Error {
	msg.Type = flags
	return msg
}

func (msg *Error) SetMeta(data any) *Error {
	msg.Meta = data
	return msg
}

var _ error = (*Error)(nil)

// New 新建一个指定错误和错误类型及元数据的自定义错误。
func New(err error, t ErrorType, meta any) *Error {
	return &Error{
		Err:  err,
		Type: t,
		Meta: meta,
	}
}

func NewPublic(err string) *Error {
	return New(errors.New(err), ErrorTypePublic, nil)
}

func NewPrivate(err string) *Error {
	return New(errors.New(err), ErrorTypePrivate, nil)
}

func Newf(t ErrorType, meta any, format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), t, meta)
}

func NewPublicf(format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), ErrorTypePublic, nil)
}

func NewPrivatef(format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), ErrorTypePrivate, nil)
}

// NewProtocol 新建一个阻断性协议违规错误，meta 描述违规处。
func NewProtocol(err string, meta any) *Error {
	return New(errors.New(err), ErrorTypeProtocol, meta)
}

// IsBlock 报告 err 是否为阻断性错误（协议、流、连接或压缩错误）。
// ErrNeedMore 和 nil 均不是阻断。
func IsBlock(err error) bool {
	if err == nil || errors.Is(err, ErrNeedMore) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.IsType(ErrorTypeProtocol | ErrorTypeStream | ErrorTypeConnection | ErrorTypeCompression)
	}
	return false
}
