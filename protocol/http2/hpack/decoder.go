package hpack

import (
	"github.com/const-t/tempesta/common/bytebufferpool"
)

// Decoder 维持一条连接的解压缩上下文。
// 整条连接的所有标头块必须经由同一个实例，否则索引会失配。
type Decoder struct {
	table dynamicTable
	// 当前块内是否已出现普通字段，
	// 容量更新只许在它们之前
	sawField bool
}

// NewDecoder 以公告的表容量构造解码器。
func NewDecoder(capacity uint32) *Decoder {
	d := &Decoder{}
	d.table.cap = capacity
	d.table.maxSize = capacity
	return d
}

// SetCapacity 应用新的 SETTINGS_HEADER_TABLE_SIZE 公告值。
// 现有表不动，仅约束后续的容量更新。
func (d *Decoder) SetCapacity(n uint32) {
	d.table.cap = n
}

// TableSize 返回动态表当前占用的八位组数。
func (d *Decoder) TableSize() uint32 {
	return d.table.size
}

// Decode 解码一个完整标头块并逐条回调 emit。
// 非霍夫曼字面量直接借用 block 的字节；霍夫曼产物追加进
// arena。两者都要求调用方保证其生存期覆盖所属报文。
// 返回错误后压缩上下文不可再用。
func (d *Decoder) Decode(block []byte, arena *bytebufferpool.ByteBuffer, emit func(f Field) error) error {
	d.sawField = false
	var err error
	for len(block) > 0 {
		b := block[0]
		switch {
		case b&0x80 != 0:
			block, err = d.indexed(block, emit)
		case b&0x40 != 0:
			block, err = d.literal(block, arena, 6, true, false, emit)
		case b&0x20 != 0:
			block, err = d.sizeUpdate(block)
		case b&0x10 != 0:
			block, err = d.literal(block, arena, 4, false, true, emit)
		default:
			block, err = d.literal(block, arena, 4, false, false, emit)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// entryAt 按绝对索引取条目：静态表在前，动态表紧随其后。
func (d *Decoder) entryAt(i uint32) (tableEntry, error) {
	if i == 0 {
		return tableEntry{}, errIndex
	}
	if i <= staticCount {
		return staticEntries[i-1], nil
	}
	e, ok := d.table.lookup(i - staticCount)
	if !ok {
		return tableEntry{}, errIndex
	}
	return e, nil
}

func (d *Decoder) indexed(block []byte, emit func(f Field) error) ([]byte, error) {
	i, rest, err := decodeInt(block, 7)
	if err != nil {
		return nil, err
	}
	e, err := d.entryAt(i)
	if err != nil {
		return nil, err
	}
	d.sawField = true
	return rest, emit(Field{Name: e.name, Value: e.value})
}

func (d *Decoder) literal(block []byte, arena *bytebufferpool.ByteBuffer, prefix uint8, addToTable, sensitive bool, emit func(f Field) error) ([]byte, error) {
	i, rest, err := decodeInt(block, prefix)
	if err != nil {
		return nil, err
	}
	var name []byte
	if i == 0 {
		name, rest, err = readString(rest, arena)
		if err != nil {
			return nil, err
		}
	} else {
		e, err := d.entryAt(i)
		if err != nil {
			return nil, err
		}
		name = e.name
	}
	value, rest, err := readString(rest, arena)
	if err != nil {
		return nil, err
	}
	if addToTable {
		d.table.add(name, value)
	}
	d.sawField = true
	return rest, emit(Field{Name: name, Value: value, Sensitive: sensitive})
}

func (d *Decoder) sizeUpdate(block []byte) ([]byte, error) {
	if d.sawField {
		return nil, errSizeUpdateOrder
	}
	n, rest, err := decodeInt(block, 5)
	if err != nil {
		return nil, err
	}
	if n > d.table.cap {
		return nil, errSizeUpdateBound
	}
	d.table.setMaxSize(n)
	return rest, nil
}

// readString 读取一个长度前缀字符串。霍夫曼编码的内容解码进
// arena 并返回其中的切片，原始内容直接返回 block 中的切片。
func readString(block []byte, arena *bytebufferpool.ByteBuffer) ([]byte, []byte, error) {
	if len(block) == 0 {
		return nil, nil, errTruncated
	}
	huffman := block[0]&0x80 != 0
	n, rest, err := decodeInt(block, 7)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, errTruncated
	}
	raw := rest[:n]
	rest = rest[n:]
	if !huffman {
		return raw, rest, nil
	}
	off := len(arena.B)
	arena.B, err = HuffmanDecode(arena.B, raw)
	if err != nil {
		return nil, nil, err
	}
	return arena.B[off:], rest, nil
}
