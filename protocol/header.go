package protocol

import (
	"github.com/const-t/tempesta/internal/bytesconv"
)

// HeaderField 是有序标头表中的一行。
// 名称块带 ChunkFlagName，值块带 ChunkFlagValue；
// 行本身不持有字节，块内存借用自交付缓冲区。
type HeaderField struct {
	Name  Str
	Value Str

	// Trailer 标记该行来自分块尾部或 HTTP/2 尾标头块。
	Trailer bool

	// Sensitive 标记该行以 HPACK 从不索引字面量送达，
	// 转发时必须保留该属性（RFC 7541 §7.1.3）。
	Sensitive bool
}

func (f *HeaderField) reset() {
	f.Name.Reset()
	f.Value.Reset()
	f.Trailer = false
	f.Sensitive = false
}

// Headers 是保持插入顺序、允许重名的标头表。并发不安全。
type Headers struct {
	fields []HeaderField
}

// Reset 清空标头表以复用，底层容量保留。
func (h *Headers) Reset() {
	h.fields = h.fields[:0]
}

// Len 返回行数。
func (h *Headers) Len() int {
	return len(h.fields)
}

// At 返回第 i 行。
func (h *Headers) At(i int) *HeaderField {
	return &h.fields[i]
}

// Last 返回最后一行，空表返回 nil。
func (h *Headers) Last() *HeaderField {
	if len(h.fields) == 0 {
		return nil
	}
	return &h.fields[len(h.fields)-1]
}

// Push 追加一个空行并返回，复用底层容量。
func (h *Headers) Push() *HeaderField {
	n := len(h.fields)
	if cap(h.fields) > n {
		h.fields = h.fields[:n+1]
	} else {
		h.fields = append(h.fields, HeaderField{})
	}
	f := &h.fields[n]
	f.reset()
	return f
}

// Peek 返回首个名称匹配（ASCII 大小写无关）行的值，未找到返回 nil。
func (h *Headers) Peek(name []byte) *Str {
	if f := h.PeekField(name); f != nil {
		return &f.Value
	}
	return nil
}

// PeekField 返回首个名称匹配（ASCII 大小写无关）的行，未找到返回 nil。
func (h *Headers) PeekField(name []byte) *HeaderField {
	for i := range h.fields {
		if h.fields[i].Name.EqFold(name) {
			return &h.fields[i]
		}
	}
	return nil
}

// Get 返回首个匹配标头值的拷贝。未出现的标头返回空串。
func (h *Headers) Get(name string) string {
	if v := h.Peek(bytesconv.S2b(name)); v != nil {
		return v.String()
	}
	return ""
}

// VisitAll 按插入顺序遍历各行。
func (h *Headers) VisitAll(f func(field *HeaderField)) {
	for i := range h.fields {
		f(&h.fields[i])
	}
}

// AppendTo 以 HTTP/1.x 线格式将各行追加到 dst 并返回。
func (h *Headers) AppendTo(dst []byte) []byte {
	for i := range h.fields {
		f := &h.fields[i]
		dst = f.Name.AppendTo(dst)
		dst = append(dst, ':', ' ')
		dst = f.Value.AppendTo(dst)
		dst = append(dst, '\r', '\n')
	}
	return dst
}
