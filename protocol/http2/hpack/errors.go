package hpack

import "errors"

// 任一解码错误都意味着压缩上下文已不可信，
// 连接层应按 COMPRESSION_ERROR 终止整条连接。
var (
	errTruncated       = errors.New("标头块中途截断")
	errIntegerOverflow = errors.New("整数超出解码上限")
	errIndex           = errors.New("索引为零或越界")
	errSizeUpdateOrder = errors.New("表容量更新不在块首")
	errSizeUpdateBound = errors.New("表容量更新超出公告上界")
	errHuffman         = errors.New("霍夫曼编码非法")
)
