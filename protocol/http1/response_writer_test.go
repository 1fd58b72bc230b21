package http1

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/const-t/tempesta/network"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
)

func writeToString(t *testing.T, resp *protocol.Response) string {
	t.Helper()
	var buf bytes.Buffer
	zw := network.NewWriter(&buf)
	require.NoError(t, WriteResponse(resp, zw))
	return buf.String()
}

func TestWriteResponseDefaults(t *testing.T) {
	var resp protocol.Response
	resp.Body().Append([]byte("hello"), 0)

	out := writeToString(t, &resp)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello", out)
}

func TestWriteResponseCustomReason(t *testing.T) {
	var resp protocol.Response
	resp.SetStatusCode(consts.StatusNotFound)
	resp.Reason().Append([]byte("Gone Fishing"), 0)

	out := writeToString(t, &resp)
	assert.Equal(t, "HTTP/1.1 404 Gone Fishing\r\nContent-Length: 0\r\n\r\n", out)
}

func TestWriteResponseKeepsHeaderOrder(t *testing.T) {
	var resp protocol.Response
	for _, kv := range [][2]string{{"B", "2"}, {"A", "1"}, {"C", "3"}} {
		f := resp.Header.Push()
		f.Name.Append([]byte(kv[0]), protocol.ChunkFlagName)
		f.Value.Append([]byte(kv[1]), protocol.ChunkFlagValue)
	}

	out := writeToString(t, &resp)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nB: 2\r\nA: 1\r\nC: 3\r\n\r\n", out)
}

func TestWriteResponseDeclaredContentLength(t *testing.T) {
	// 已有 Content-Length 声明时不再补
	var resp protocol.Response
	f := resp.Header.Push()
	f.Name.Append([]byte("Content-Length"), protocol.ChunkFlagName)
	f.Value.Append([]byte("5"), protocol.ChunkFlagValue)
	resp.Body().Append([]byte("hello"), 0)

	out := writeToString(t, &resp)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello", out)
}

func TestWriteResponseVoidBody(t *testing.T) {
	// 204 不得有正文，处理器误填的正文被丢弃
	var resp protocol.Response
	resp.SetStatusCode(consts.StatusNoContent)
	resp.Body().Append([]byte("dropped"), 0)

	out := writeToString(t, &resp)
	assert.Equal(t, "HTTP/1.1 204 No Content\r\n\r\n", out)

	// HEAD 配对同理
	var req protocol.Request
	req.SetMethod(protocol.MethodHead)
	var headResp protocol.Response
	headResp.PairWith(&req)
	headResp.Body().Append([]byte("dropped"), 0)

	out = writeToString(t, &headResp)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", out)
}

func TestWriteResponseSkipsTrailerRows(t *testing.T) {
	var resp protocol.Response
	f := resp.Header.Push()
	f.Name.Append([]byte("X-Normal"), protocol.ChunkFlagName)
	f.Value.Append([]byte("yes"), protocol.ChunkFlagValue)
	tr := resp.Header.Push()
	tr.Name.Append([]byte("X-Trailing"), protocol.ChunkFlagName)
	tr.Value.Append([]byte("no"), protocol.ChunkFlagValue)
	tr.Trailer = true

	out := writeToString(t, &resp)
	assert.Contains(t, out, "X-Normal: yes\r\n")
	assert.NotContains(t, out, "X-Trailing")
}
