package bytesconv

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowercaseBytes(t *testing.T) {
	t.Parallel()

	for _, v := range []struct {
		b1, b2 []byte
	}{
		{[]byte("Content-Length"), []byte("content-length")},
		{[]byte("host"), []byte("host")},
		{[]byte("HTTP"), []byte("http")},
	} {
		LowercaseBytes(v.b1)
		assert.Equal(t, v.b2, v.b1)
	}
}

func TestB2s(t *testing.T) {
	t.Parallel()

	for _, v := range []struct {
		s string
		b []byte
	}{
		{"tempesta-http", []byte("tempesta-http")},
		{"tempesta", []byte("tempesta")},
		{"http", []byte("http")},
	} {
		assert.Equal(t, v.s, B2s(v.b))
	}
}

func TestS2b(t *testing.T) {
	t.Parallel()

	for _, v := range []struct {
		s string
		b []byte
	}{
		{"tempesta-http", []byte("tempesta-http")},
		{"tempesta", []byte("tempesta")},
		{"http", []byte("http")},
	} {
		assert.Equal(t, v.b, S2b(v.s))
	}
}

func TestAppendUint(t *testing.T) {
	t.Parallel()

	for _, s := range []struct {
		n int
	}{
		{0},
		{123},
		{0x7fffffff},
	} {
		expectedS := fmt.Sprintf("%d", s.n)
		s := AppendUint(nil, s.n)
		assert.Equal(t, expectedS, B2s(s))
	}
}

func TestParseUintBuf(t *testing.T) {
	t.Parallel()

	for _, v := range []struct {
		s string
		n int
	}{
		{"0", 0},
		{"5", 5},
		{"123456", 123456},
	} {
		got, read, err := ParseUintBuf(S2b(v.s))
		assert.NoError(t, err)
		assert.Equal(t, len(v.s), read)
		assert.Equal(t, v.n, got)
	}

	_, _, err := ParseUintBuf(nil)
	assert.Error(t, err)
	_, _, err = ParseUintBuf(S2b("a123"))
	assert.Error(t, err)
}

func TestParseUint(t *testing.T) {
	t.Parallel()

	n, err := ParseUint(S2b("9216"))
	assert.NoError(t, err)
	assert.Equal(t, 9216, n)

	_, err = ParseUint(S2b("123x"))
	assert.Error(t, err)
}

func TestParseUint64Strict(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]uint64{
		"0":                    0,
		"7":                    7,
		"9216":                 9216,
		"18446744073709551615": 1<<64 - 1,
	} {
		v, err := ParseUint64Strict(S2b(in))
		assert.NoError(t, err, in)
		assert.Equal(t, want, v, in)
	}

	for _, in := range []string{
		"", "00", "01", "007", "+5", "-1", "4.4", "5x", " 5", "5 ",
		"18446744073709551616", "99999999999999999999",
	} {
		_, err := ParseUint64Strict(S2b(in))
		assert.Error(t, err, in)
	}
}

func TestHex2intTable(t *testing.T) {
	t.Parallel()

	for c, want := range map[byte]byte{
		'0': 0, '9': 9,
		'a': 10, 'f': 15,
		'A': 10, 'F': 15,
		'g': 16, 'G': 16, ' ': 16, '-': 16,
	} {
		assert.Equal(t, want, Hex2intTable[c], "字符 %q", c)
	}
}

func BenchmarkB2s(b *testing.B) {
	s := "hi"
	bs := []byte("hi")

	b.Run("std/string", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = string(bs)
		}
	})

	b.Run("bytesconv/B2s", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = B2s(bs)
		}
	})

	b.Run("std/[]byte", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = []byte(s)
		}
	})

	b.Run("bytesconv/S2b", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = S2b(s)
		}
	})
}
