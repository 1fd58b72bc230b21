package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponsePairing(t *testing.T) {
	req := AcquireRequest()
	defer ReleaseRequest(req)
	req.SetMethod(MethodGet)

	resp := AcquireResponse()
	defer ReleaseResponse(resp)
	resp.PairWith(req)
	resp.SetStatusCode(200)
	resp.SetVersion(Version11)

	assert.Same(t, req, resp.PairedRequest())
	assert.False(t, resp.VoidBody())

	resp.Reset()
	assert.Nil(t, resp.PairedRequest())
	assert.Equal(t, 0, resp.StatusCode())
	assert.Equal(t, VersionUnknown, resp.Version())
}

func TestResponseVoidBody(t *testing.T) {
	req := AcquireRequest()
	defer ReleaseRequest(req)

	resp := AcquireResponse()
	defer ReleaseResponse(resp)
	resp.PairWith(req)

	// 正文有无取决于配对请求的方法与状态码
	req.SetMethod(MethodHead)
	resp.SetStatusCode(200)
	assert.True(t, resp.VoidBody())

	req.SetMethod(MethodGet)
	assert.False(t, resp.VoidBody())

	for _, code := range []int{100, 101, 199, 204, 304} {
		resp.SetStatusCode(code)
		assert.True(t, resp.VoidBody(), code)
	}
	for _, code := range []int{200, 203, 205, 300, 303, 305, 404, 500} {
		resp.SetStatusCode(code)
		assert.False(t, resp.VoidBody(), code)
	}

	// 未配对时仅状态码参与判定
	orphan := AcquireResponse()
	defer ReleaseResponse(orphan)
	orphan.SetStatusCode(204)
	assert.True(t, orphan.VoidBody())
	orphan.SetStatusCode(200)
	assert.False(t, orphan.VoidBody())
}

func TestResponseBodyDescriptor(t *testing.T) {
	resp := AcquireResponse()
	defer ReleaseResponse(resp)

	assert.Equal(t, BodyNone, resp.BodyKind())
	resp.SetContentLength(42)
	assert.Equal(t, BodyContentLength, resp.BodyKind())
	assert.Equal(t, uint64(42), resp.ContentLength())

	resp.SetBodyKind(BodyToEOF)
	assert.Equal(t, BodyToEOF, resp.BodyKind())

	resp.Body().Append([]byte("part1 "), 0)
	resp.Body().Append([]byte("part2"), 0)
	assert.Equal(t, "part1 part2", resp.Body().String())
}
