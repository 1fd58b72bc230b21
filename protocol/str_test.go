package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// splitStr 按固定尺寸分块构造 Str。
func splitStr(s string, chunkSize int, flags ChunkFlags) *Str {
	str := &Str{}
	b := []byte(s)
	for len(b) > 0 {
		n := chunkSize
		if n > len(b) {
			n = len(b)
		}
		str.Append(b[:n], flags)
		b = b[n:]
	}
	return str
}

func TestStrAppendPromotion(t *testing.T) {
	var s Str
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Chunks())

	s.Append([]byte("Host"), ChunkFlagName)
	assert.True(t, s.IsPlain())
	assert.Equal(t, 1, s.Chunks())
	assert.Equal(t, 4, s.Len())

	// 第二个块触发平面形式到分块形式的提升
	s.Append([]byte("name"), ChunkFlagName)
	assert.False(t, s.IsPlain())
	assert.Equal(t, 2, s.Chunks())
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, "Hostname", s.String())

	// 空片段不产生新块
	s.Append(nil, ChunkFlagName)
	assert.Equal(t, 2, s.Chunks())

	// 不同标志的字节不合并进同一块
	s.Append([]byte("value"), ChunkFlagValue)
	assert.Equal(t, 3, s.Chunks())
	assert.Equal(t, ChunkFlagName, s.ChunkAt(1).Flags())
	assert.Equal(t, ChunkFlagValue, s.ChunkAt(2).Flags())

	s.Reset()
	assert.True(t, s.Empty())
	assert.True(t, s.IsPlain())
}

func TestStrEqAcrossChunkings(t *testing.T) {
	const text = "no-cache, no-store, must-revalidate"
	for size := 1; size <= len(text); size++ {
		s := splitStr(text, size, ChunkFlagValue)
		assert.Equal(t, len(text), s.Len())
		assert.True(t, s.Eq([]byte(text)), "chunk size %d", size)
		assert.True(t, s.EqFold([]byte("NO-CACHE, NO-STORE, MUST-REVALIDATE")), "chunk size %d", size)
		assert.False(t, s.Eq([]byte("no-cache, no-store, must-revalidatX")))
		assert.False(t, s.Eq([]byte(text[:len(text)-1])))
		assert.Equal(t, text, s.String())
	}
}

func TestStrEqStr(t *testing.T) {
	const text = "max-age=3600"
	a := splitStr(text, 1, ChunkFlagValue)
	b := splitStr(text, 5, ChunkFlagValue)
	plain := splitStr(text, len(text), ChunkFlagValue)

	assert.True(t, a.EqStr(b))
	assert.True(t, b.EqStr(a))
	assert.True(t, plain.EqStr(a))
	assert.True(t, a.EqStr(plain))

	c := splitStr("max-age=3601", 3, ChunkFlagValue)
	assert.False(t, a.EqStr(c))
	d := splitStr("max-age=360", 3, ChunkFlagValue)
	assert.False(t, a.EqStr(d))

	var empty1, empty2 Str
	assert.True(t, empty1.EqStr(&empty2))
}

func TestStrTrimLastBytes(t *testing.T) {
	// 平面形式
	s := splitStr("value  ", 7, ChunkFlagValue)
	s.TrimLastBytes(2)
	assert.Equal(t, "value", s.String())

	// 跨块修剪
	s = &Str{}
	s.Append([]byte("val"), ChunkFlagValue)
	s.Append([]byte("ue"), ChunkFlagValue)
	s.Append([]byte(" "), ChunkFlagValue)
	s.Append([]byte("\t "), ChunkFlagValue)
	s.TrimLastBytes(3)
	assert.Equal(t, "value", s.String())
	assert.Equal(t, 2, s.Chunks())

	// 整块落在修剪范围内
	s = &Str{}
	s.Append([]byte("a"), ChunkFlagValue)
	s.Append([]byte("   "), ChunkFlagValue)
	s.TrimLastBytes(3)
	assert.Equal(t, "a", s.String())

	// 修剪全部字节
	s = splitStr("   ", 1, ChunkFlagValue)
	s.TrimLastBytes(3)
	assert.True(t, s.Empty())

	s = splitStr("x", 1, ChunkFlagValue)
	s.TrimLastBytes(0)
	assert.Equal(t, "x", s.String())
}

func TestStrVisitSubValues(t *testing.T) {
	// 模拟 If-None-Match: "be72", "dummy" 的值块布局，
	// 引号与分隔符不带子值标志。
	var s Str
	s.Append([]byte(`"`), ChunkFlagValue)
	s.Append([]byte("be"), ChunkFlagValue|ChunkFlagSubValue)
	s.Append([]byte("72"), ChunkFlagValue|ChunkFlagSubValue) // 子值因边界横跨两块
	s.Append([]byte(`", `), ChunkFlagValue)
	s.Append([]byte(`"`), ChunkFlagValue)
	s.Append([]byte("dummy"), ChunkFlagValue|ChunkFlagSubValue)
	s.Append([]byte(`"`), ChunkFlagValue)

	var got []string
	s.VisitSubValues(func(v *Str) {
		got = append(got, v.String())
	})
	assert.Equal(t, []string{"be72", "dummy"}, got)

	// 无子值标志则不产生回调
	plain := splitStr("etag", 2, ChunkFlagValue)
	plain.VisitSubValues(func(v *Str) {
		t.Fatal("unexpected sub-value")
	})

	// 平面形式且带标志时整串视为单个子值
	var one Str
	one.Append([]byte("w/xyz"), ChunkFlagValue|ChunkFlagSubValue)
	got = got[:0]
	one.VisitSubValues(func(v *Str) {
		got = append(got, v.String())
	})
	assert.Equal(t, []string{"w/xyz"}, got)
}

func TestStrUnescape(t *testing.T) {
	var s Str
	s.Append([]byte("/a%20b"), ChunkFlagUnescape)
	assert.Equal(t, "/a b", string(s.Unescape(nil)))

	// 转义序列跨块边界
	s.Reset()
	s.Append([]byte("/x%"), ChunkFlagUnescape)
	s.Append([]byte("2Fy"), ChunkFlagUnescape)
	assert.Equal(t, "/x/y", string(s.Unescape(nil)))

	// 高低位分属两块
	s.Reset()
	s.Append([]byte("%2"), ChunkFlagUnescape)
	s.Append([]byte("f"), ChunkFlagUnescape)
	assert.Equal(t, "/", string(s.Unescape(nil)))

	// 未标记的块原样通过
	s.Reset()
	s.Append([]byte("/plain"), 0)
	s.Append([]byte("/%41"), ChunkFlagUnescape)
	assert.Equal(t, "/plain/A", string(s.Unescape(nil)))
}

func TestStrAppendTo(t *testing.T) {
	s := splitStr("abcdef", 2, 0)
	dst := []byte("X:")
	dst = s.AppendTo(dst)
	assert.Equal(t, "X:abcdef", string(dst))

	var empty Str
	assert.Equal(t, "", empty.String())
	assert.Nil(t, empty.AppendTo(nil))
}
