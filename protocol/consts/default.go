package consts

import "time"

const (
	// DefaultMaxIdleConnDuration 闲置长连接超过此时长后会被关闭。
	DefaultMaxIdleConnDuration = 10 * time.Second
)
