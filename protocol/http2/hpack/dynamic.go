package hpack

// dynamicTable 是一条连接方向上的动态索引表。
// 条目按插入序保存在尾部，索引 1 指向最新条目；
// 逐出总是从最旧端开始（RFC 7541 §2.3.2）。
type dynamicTable struct {
	entries []tableEntry
	size    uint32
	maxSize uint32
	// SETTINGS_HEADER_TABLE_SIZE 公告的上界，
	// 容量更新不得超过它
	cap uint32
}

func entrySize(name, value []byte) uint32 {
	return uint32(len(name) + len(value) + entryOverhead)
}

// lookup 返回动态索引 i（从 1 起算最新）对应的条目。
func (t *dynamicTable) lookup(i uint32) (tableEntry, bool) {
	if i == 0 || i > uint32(len(t.entries)) {
		return tableEntry{}, false
	}
	return t.entries[uint32(len(t.entries))-i], true
}

// add 复制 name 与 value 后入表。单条超过容量时不入表，
// 仅把表清空，这不是错误。
func (t *dynamicTable) add(name, value []byte) {
	need := entrySize(name, value)
	if need > t.maxSize {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.evictFor(need)
	e := tableEntry{
		name:  append([]byte(nil), name...),
		value: append([]byte(nil), value...),
	}
	t.entries = append(t.entries, e)
	t.size += need
}

func (t *dynamicTable) evictFor(need uint32) {
	drop := 0
	for t.size+need > t.maxSize && drop < len(t.entries) {
		e := t.entries[drop]
		t.size -= entrySize(e.name, e.value)
		drop++
	}
	if drop > 0 {
		remain := copy(t.entries, t.entries[drop:])
		for i := remain; i < len(t.entries); i++ {
			// 已逐出槽位不再持有字节引用
			t.entries[i] = tableEntry{}
		}
		t.entries = t.entries[:remain]
	}
}

// setMaxSize 应用一次容量更新并按需逐出。
func (t *dynamicTable) setMaxSize(n uint32) {
	t.maxSize = n
	t.evictFor(0)
}
