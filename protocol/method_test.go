package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	for m := MethodCopy; m <= MethodPurge; m++ {
		assert.Equal(t, m, ParseMethod([]byte(m.String())), m.String())
	}

	// 方法区分大小写，未注册的串一律未知
	for _, s := range []string{"", "get", "Get", "G", "GETS", "FOO", "PROPPATCHX", "P"} {
		assert.Equal(t, MethodUnknown, ParseMethod([]byte(s)), "%q", s)
	}
	assert.Equal(t, "", MethodUnknown.String())
	assert.Equal(t, "", Method(250).String())
}

func TestMethodBodyless(t *testing.T) {
	bodyless := map[Method]bool{
		MethodGet:    true,
		MethodHead:   true,
		MethodDelete: true,
		MethodTrace:  true,
	}
	for m := MethodUnknown; m <= MethodPurge; m++ {
		assert.Equal(t, bodyless[m], m.Bodyless(), m.String())
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "HTTP/1.0", Version10.String())
	assert.Equal(t, "HTTP/1.1", Version11.String())
	assert.Equal(t, "HTTP/2.0", Version2.String())
	assert.Equal(t, "", VersionUnknown.String())
}
