package hpack

import (
	"bytes"
)

// Encoder 产生标头块，供上游侧请求重组与测试构造使用。
// 与解码器同样是每连接一个实例。
type Encoder struct {
	table dynamicTable
	// 容量变化后待发的更新，编入下一块块首
	pending bool
}

// NewEncoder 以对端公告的表容量构造编码器。
func NewEncoder(capacity uint32) *Encoder {
	e := &Encoder{}
	e.table.cap = capacity
	e.table.maxSize = capacity
	return e
}

// SetCapacity 响应对端新的表容量公告。
// 下一个标头块的块首会携带相应的容量更新。
func (e *Encoder) SetCapacity(n uint32) {
	e.table.cap = n
	e.table.setMaxSize(n)
	e.pending = true
}

// AppendField 把一条标头编入块尾并返回。
// Sensitive 字段走从不索引字面量且不入表。
func (e *Encoder) AppendField(dst []byte, f Field) []byte {
	if e.pending {
		dst = appendInt(dst, 0x20, 5, e.table.maxSize)
		e.pending = false
	}

	if f.Sensitive {
		nameIdx := e.nameIndex(f.Name)
		dst = appendInt(dst, 0x10, 4, nameIdx)
		if nameIdx == 0 {
			dst = appendString(dst, f.Name)
		}
		return appendString(dst, f.Value)
	}

	idx, exact := e.search(f.Name, f.Value)
	if exact {
		return appendInt(dst, 0x80, 7, idx)
	}
	dst = appendInt(dst, 0x40, 6, idx)
	if idx == 0 {
		dst = appendString(dst, f.Name)
	}
	dst = appendString(dst, f.Value)
	e.table.add(f.Name, f.Value)
	return dst
}

// search 在静态与动态表中找 name/value。
// exact 为真时 idx 指向名值俱同的条目，否则 idx 是
// 仅名字相同的条目，找不到名字时为零。
func (e *Encoder) search(name, value []byte) (idx uint32, exact bool) {
	if i, ok := staticByNameValue[string(name)+"\x00"+string(value)]; ok {
		return i, true
	}
	for k := len(e.table.entries) - 1; k >= 0; k-- {
		ent := &e.table.entries[k]
		if !bytes.Equal(ent.name, name) {
			continue
		}
		dyn := staticCount + uint32(len(e.table.entries)-k)
		if bytes.Equal(ent.value, value) {
			return dyn, true
		}
		if idx == 0 {
			idx = dyn
		}
	}
	if i, ok := staticByName[string(name)]; ok {
		idx = i
	}
	return idx, false
}

func (e *Encoder) nameIndex(name []byte) uint32 {
	if i, ok := staticByName[string(name)]; ok {
		return i
	}
	for k := len(e.table.entries) - 1; k >= 0; k-- {
		if bytes.Equal(e.table.entries[k].name, name) {
			return staticCount + uint32(len(e.table.entries)-k)
		}
	}
	return 0
}

// appendString 编入一个长度前缀字符串，压缩得更短时用霍夫曼。
func appendString(dst []byte, s []byte) []byte {
	if hl := huffmanLen(s); hl < len(s) {
		dst = appendInt(dst, 0x80, 7, uint32(hl))
		return HuffmanEncode(dst, s)
	}
	dst = appendInt(dst, 0, 7, uint32(len(s)))
	return append(dst, s...)
}
