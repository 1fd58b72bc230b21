package bytesconv

import (
	"math"
	"net/http"
	"reflect"
	"time"
	"unsafe"
)

// LowercaseBytes 就地将 b 转为小写。
func LowercaseBytes(b []byte) {
	for i, n := 0, len(b); i < n; i++ {
		p := &b[i]
		*p = ToLowerTable[*p]
	}
}

// B2s 将字节切片转为字符串，且不分配内存。
// 详见 https://groups.google.com/forum/#!msg/Golang-Nuts/ENgbUzYvCuU/90yGx7GUAgAJ 。
//
// 注意：如果字符串或切片的标头在未来的go版本中更改，该方法可能会出错。
func B2s(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2b 将字符串转为字节切片，且不分配内存。
//
// 注意：如果字符串或切片的标头在未来的go版本中更改，该方法可能会出错。
func S2b(s string) (b []byte) {
	bh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh.Data = sh.Data
	bh.Len = sh.Len
	bh.Cap = sh.Len
	return b
}

// AppendUint 向 dst 追加正整数 n 并返回。
func AppendUint(dst []byte, n int) []byte {
	if n < 0 {
		panic("BUG：int 必须为正整数")
	}

	var b [20]byte
	buf := b[:]
	i := len(buf)
	var q int
	for n >= 10 {
		i--
		q = n / 10
		buf[i] = '0' + byte(n-q*10)
		n = q
	}
	i--
	buf[i] = '0' + byte(n)

	dst = append(dst, buf[i:]...)
	return dst
}

// AppendHTTPDate 向 dst 追加 HTTP 兼容时间并返回。
func AppendHTTPDate(dst []byte, date time.Time) []byte {
	return date.UTC().AppendFormat(dst, http.TimeFormat)
}

// ParseUintBuf 解析 b 中的整数。
func ParseUintBuf(b []byte) (v, n int, err error) {
	n = len(b)
	if n == 0 {
		return -1, 0, errEmptyInt
	}
	for i := 0; i < n; i++ {
		c := b[i]
		k := c - '0'
		if k > 9 {
			if i == 0 {
				return -1, i, errUnexpectedFirstChar
			}
			return v, i, nil
		}
		vNew := 10*v + int(k)
		// 测试溢出
		if vNew < v {
			return -1, i, errTooLongInt
		}
		v = vNew
	}
	return
}

// ParseUint 解析 b 中的整数。
func ParseUint(b []byte) (int, error) {
	v, n, err := ParseUintBuf(b)
	if n != len(b) {
		return -1, errUnexpectedTrailingChar
	}
	return v, err
}

// ParseUint64Strict 按严格文法解析十进制无符号整数：
// 仅接受数字字节，多余前导零与溢出均为错误。
func ParseUint64Strict(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, errEmptyInt
	}
	if b[0] == '0' && len(b) > 1 {
		return 0, errLeadingZero
	}
	var v uint64
	for _, c := range b {
		d := uint64(c - '0')
		if d > 9 {
			return 0, errNotDecimal
		}
		if v > (math.MaxUint64-d)/10 {
			return 0, errTooLongInt
		}
		v = v*10 + d
	}
	return v, nil
}
