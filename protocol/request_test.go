package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestResetReuse(t *testing.T) {
	req := AcquireRequest()
	defer ReleaseRequest(req)

	req.SetMethod(MethodPost)
	req.SetVersion(Version11)
	req.URI().Append([]byte("/a%20b"), ChunkFlagUnescape)
	req.SetContentLength(10)
	req.Body().Append([]byte("0123456789"), 0)
	req.SetFlag(FlagHeadersParsed | FlagComplete)
	addField(&req.Header, "Host", "example.com")

	assert.Equal(t, MethodPost, req.Method())
	assert.Equal(t, Version11, req.Version())
	assert.Equal(t, uint64(10), req.ContentLength())
	assert.Equal(t, BodyContentLength, req.BodyKind())
	assert.True(t, req.HasFlag(FlagHeadersParsed))
	assert.True(t, req.Complete())
	assert.Equal(t, "/a b", string(req.URI().Unescape(nil)))

	req.Reset()
	assert.Equal(t, MethodUnknown, req.Method())
	assert.Equal(t, VersionUnknown, req.Version())
	assert.Equal(t, BodyNone, req.BodyKind())
	assert.Equal(t, uint64(0), req.ContentLength())
	assert.True(t, req.URI().Empty())
	assert.True(t, req.Body().Empty())
	assert.Equal(t, MessageFlags(0), req.Flags())
	assert.Equal(t, 0, req.Header.Len())
}

func TestRequestPseudoHeaders(t *testing.T) {
	req := AcquireRequest()
	defer ReleaseRequest(req)

	req.SetFlag(FlagHTTP2)
	req.Scheme().Append([]byte("https"), ChunkFlagValue)
	req.Authority().Append([]byte("example.com"), ChunkFlagValue)
	req.URI().Append([]byte("/index.html"), ChunkFlagValue)

	assert.True(t, req.HasFlag(FlagHTTP2))
	assert.True(t, req.Scheme().Eq([]byte("https")))
	assert.True(t, req.Authority().Eq([]byte("example.com")))

	req.Reset()
	assert.True(t, req.Scheme().Empty())
	assert.True(t, req.Authority().Empty())
}
