package protocol

import (
	"bytes"

	"github.com/const-t/tempesta/internal/bytesconv"
)

// ChunkFlags 标记块内字节的语义。
type ChunkFlags uint8

const (
	// ChunkFlagName 块属于标头名称。
	ChunkFlagName ChunkFlags = 1 << iota

	// ChunkFlagValue 块属于标头值。
	ChunkFlagValue

	// ChunkFlagSubValue 块属于值内的语义子值，如 ETag 列表中的一项。
	ChunkFlagSubValue

	// ChunkFlagUnescape 块含百分号转义，需解码后使用。
	ChunkFlagUnescape
)

// Chunk 是借用自网络缓冲区的一段字节及其语义标志。
type Chunk struct {
	data  []byte
	flags ChunkFlags
}

// Data 返回块的字节。字节借用自交付缓冲区，在所属报文释放前有效。
func (c *Chunk) Data() []byte { return c.data }

// Flags 返回块的语义标志。
func (c *Chunk) Flags() ChunkFlags { return c.flags }

// Str 表示跨缓冲区边界拼装的分块字符串。
//
// 单块以平面形式表示，第二个块到来时提升为分块形式。按序拼接诸块即为
// 逻辑串；块之间互不重叠，不同标志的字节永不合并进同一块。块内存借用
// 自交付数据的网络缓冲区，在所属报文释放前有效。
//
// Str 并发不安全。
type Str struct {
	plain  Chunk // 平面形式，len(chunks) == 0 时有效
	chunks []Chunk
	length int
}

// Reset 清空字符串以复用。
func (s *Str) Reset() {
	s.plain = Chunk{}
	s.chunks = s.chunks[:0]
	s.length = 0
}

// Len 返回逻辑长度。
func (s *Str) Len() int { return s.length }

// Empty 报告逻辑串是否为空。
func (s *Str) Empty() bool { return s.length == 0 }

// IsPlain 报告是否为平面形式。
func (s *Str) IsPlain() bool { return len(s.chunks) == 0 }

// Append 追加一段字节。空串进入平面形式，再次追加时提升为分块形式。
// p 为空时不产生新块。
func (s *Str) Append(p []byte, flags ChunkFlags) {
	if len(p) == 0 {
		return
	}
	switch {
	case s.length == 0:
		s.plain = Chunk{data: p, flags: flags}
	case len(s.chunks) == 0:
		s.chunks = append(s.chunks, s.plain, Chunk{data: p, flags: flags})
		s.plain = Chunk{}
	default:
		s.chunks = append(s.chunks, Chunk{data: p, flags: flags})
	}
	s.length += len(p)
}

// Chunks 返回块数。
func (s *Str) Chunks() int {
	if s.length == 0 {
		return 0
	}
	if len(s.chunks) == 0 {
		return 1
	}
	return len(s.chunks)
}

// ChunkAt 返回第 i 个块。
func (s *Str) ChunkAt(i int) *Chunk {
	if len(s.chunks) == 0 {
		return &s.plain
	}
	return &s.chunks[i]
}

// AppendTo 将逻辑串追加到 dst 并返回。
func (s *Str) AppendTo(dst []byte) []byte {
	for i, n := 0, s.Chunks(); i < n; i++ {
		dst = append(dst, s.ChunkAt(i).data...)
	}
	return dst
}

// String 返回逻辑串的拷贝。主要用于调试与测试。
func (s *Str) String() string {
	return string(s.AppendTo(nil))
}

// Eq 报告逻辑串是否与 b 逐字节相等。块边界与标志不参与比较。
func (s *Str) Eq(b []byte) bool {
	if s.length != len(b) {
		return false
	}
	for i, n := 0, s.Chunks(); i < n; i++ {
		d := s.ChunkAt(i).data
		if !bytes.Equal(d, b[:len(d)]) {
			return false
		}
		b = b[len(d):]
	}
	return true
}

// EqFold 报告逻辑串是否与 b 在 ASCII 大小写折叠下相等。
func (s *Str) EqFold(b []byte) bool {
	if s.length != len(b) {
		return false
	}
	for i, n := 0, s.Chunks(); i < n; i++ {
		for _, c := range s.ChunkAt(i).data {
			if bytesconv.ToLowerTable[c] != bytesconv.ToLowerTable[b[0]] {
				return false
			}
			b = b[1:]
		}
	}
	return true
}

// EqStr 报告两个分块字符串的逻辑串是否相等，与各自的分块方式无关。
func (s *Str) EqStr(o *Str) bool {
	if s.length != o.length {
		return false
	}
	var a, b []byte
	i, j := 0, 0
	for {
		if len(a) == 0 {
			if i == s.Chunks() {
				return true
			}
			a = s.ChunkAt(i).data
			i++
		}
		if len(b) == 0 {
			b = o.ChunkAt(j).data
			j++
		}
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		if !bytes.Equal(a[:n], b[:n]) {
			return false
		}
		a, b = a[n:], b[n:]
	}
}

// TrimLastBytes 从尾部去除 n 字节，跨块时整块丢弃。
// 用于剥离跨越缓冲区边界累积的尾部可选空白。
func (s *Str) TrimLastBytes(n int) {
	if n <= 0 {
		return
	}
	if n >= s.length {
		s.Reset()
		return
	}
	s.length -= n
	if len(s.chunks) == 0 {
		s.plain.data = s.plain.data[:len(s.plain.data)-n]
		return
	}
	for n > 0 {
		last := &s.chunks[len(s.chunks)-1]
		if len(last.data) > n {
			last.data = last.data[:len(last.data)-n]
			return
		}
		n -= len(last.data)
		s.chunks = s.chunks[:len(s.chunks)-1]
	}
}

// VisitSubValues 为每个语义子值调用 f。
// 子值由连续的 ChunkFlagSubValue 块构成，分隔块不含该标志；
// 单个子值可因缓冲区边界而横跨多个块。
func (s *Str) VisitSubValues(f func(v *Str)) {
	var v Str
	for i, n := 0, s.Chunks(); i < n; i++ {
		c := s.ChunkAt(i)
		if c.flags&ChunkFlagSubValue != 0 {
			v.Append(c.data, c.flags)
			continue
		}
		if !v.Empty() {
			f(&v)
			v = Str{}
		}
	}
	if !v.Empty() {
		f(&v)
	}
}

// Unescape 将逻辑串解码百分号转义后追加到 dst 并返回。
// 仅标记了 ChunkFlagUnescape 的块参与解码，转义序列可跨块边界；
// 十六进制位的合法性由解析器在标记前保证。
func (s *Str) Unescape(dst []byte) []byte {
	var st int // 0 普通，1 等待高位，2 等待低位
	var hi byte
	for i, n := 0, s.Chunks(); i < n; i++ {
		c := s.ChunkAt(i)
		if c.flags&ChunkFlagUnescape == 0 && st == 0 {
			dst = append(dst, c.data...)
			continue
		}
		for _, b := range c.data {
			switch st {
			case 0:
				if b == '%' {
					st = 1
				} else {
					dst = append(dst, b)
				}
			case 1:
				hi = bytesconv.Hex2intTable[b]
				st = 2
			default:
				dst = append(dst, hi<<4|bytesconv.Hex2intTable[b])
				st = 0
			}
		}
	}
	return dst
}
