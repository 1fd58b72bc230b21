package http1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/protocol"
)

func TestParseResponseSimple(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"Server: origin/3.1\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"hello world"
	for _, size := range chunkSizes {
		var resp protocol.Response
		n, err := feedResponse(&resp, raw, size)
		require.NoErrorf(t, err, "size=%d", size)
		assert.Equal(t, len(raw), n)
		assert.Equal(t, 200, resp.StatusCode())
		assert.Equal(t, "OK", resp.Reason().String())
		assert.Equal(t, protocol.Version11, resp.Version())
		assert.Equal(t, uint64(11), resp.ContentLength())
		assert.Equal(t, "hello world", resp.Body().String())
		assert.True(t, resp.Complete())
	}
}

func TestParseResponseReason(t *testing.T) {
	// 原因短语可缺省，也可含空格与标点
	var resp protocol.Response
	_, err := feedResponse(&resp, "HTTP/1.1 204\r\n\r\n", 3)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode())
	assert.True(t, resp.Reason().Empty())

	var resp2 protocol.Response
	_, err = feedResponse(&resp2, "HTTP/1.0 301 Moved Permanently\r\nContent-Length: 0\r\n\r\n", 4)
	require.NoError(t, err)
	assert.Equal(t, "Moved Permanently", resp2.Reason().String())

	var resp3 protocol.Response
	_, err = feedResponse(&resp3, "HTTP/1.1 200 \r\nContent-Length: 0\r\n\r\n", 5)
	require.NoError(t, err)
	assert.True(t, resp3.Reason().Empty())
}

func TestParseResponseStatusLine(t *testing.T) {
	for _, raw := range []string{
		"HTTP/1.1 20 OK\r\n\r\n",
		"HTTP/1.1 2000 OK\r\n\r\n",
		"HTTP/1.1 099 Early\r\n\r\n",
		"HTTP/1.1 600 Odd\r\n\r\n",
		"HTTP/1.1 999 Odd\r\n\r\n",
		"HTTP/1.1 2x0 OK\r\n\r\n",
		"HTTP/1.1  200 OK\r\n\r\n",
		"HTTP/1.1200 OK\r\n\r\n",
		"HTTP/2.0 200 OK\r\n\r\n",
		"HTTP/1.5 200 OK\r\n\r\n",
		"http/1.1 200 OK\r\n\r\n",
		"HTTP 200 OK\r\n\r\n",
	} {
		expectBlockResponse(t, raw)
	}

	// 合法状态码的边界
	for _, code := range []string{"100", "199", "200", "399", "599"} {
		raw := "HTTP/1.1 " + code + " R\r\nContent-Length: 0\r\n\r\n"
		var resp protocol.Response
		_, err := feedResponse(&resp, raw, 2)
		require.NoErrorf(t, err, "code %s", code)
	}
}

func TestParseResponseVoidBody(t *testing.T) {
	t.Run("head", func(t *testing.T) {
		// HEAD 配对响应在标头收束处终结，声明的定界不生效
		raw := "HTTP/1.1 200 OK\r\nContent-Length: 1024\r\n\r\n"
		tail := "GET /next HTTP/1.1\r\n"
		data := raw + tail

		var hreq protocol.Request
		hreq.SetMethod(protocol.MethodHead)

		p := &Parser{}
		var resp protocol.Response
		resp.PairWith(&hreq)
		p.InitResponse(&resp)
		n, err := p.ParseResponse([]byte(data))
		require.NoError(t, err)
		// 残余字节不属于本响应
		assert.Equal(t, len(raw), n)
		assert.True(t, resp.HasFlag(protocol.FlagVoidBody))
		assert.True(t, resp.Complete())
		// 声明的长度仍被记录，供缓存正文校验
		assert.Equal(t, uint64(1024), resp.ContentLength())
		assert.True(t, resp.Body().Empty())
	})

	t.Run("status", func(t *testing.T) {
		for _, code := range []string{"100", "101", "199", "204", "304"} {
			raw := "HTTP/1.1 " + code + " R\r\nTransfer-Encoding: chunked\r\n\r\n"
			for _, size := range chunkSizes {
				var resp protocol.Response
				n, err := feedResponse(&resp, raw, size)
				require.NoErrorf(t, err, "code=%s size=%d", code, size)
				assert.Equal(t, len(raw), n)
				assert.True(t, resp.HasFlag(protocol.FlagVoidBody))
				assert.True(t, resp.Body().Empty())
			}
		}
	})

	t.Run("not-void", func(t *testing.T) {
		raw := "HTTP/1.1 205 Reset Content\r\nContent-Length: 2\r\n\r\nok"
		var resp protocol.Response
		n, err := feedResponse(&resp, raw, 3)
		require.NoError(t, err)
		assert.Equal(t, len(raw), n)
		assert.False(t, resp.HasFlag(protocol.FlagVoidBody))
		assert.Equal(t, "ok", resp.Body().String())
	})
}

func TestParseResponseChunked(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"6\r\ncached\r\n" +
		"1\r\n \r\n" +
		"7\r\ncontent\r\n" +
		"0\r\n" +
		"Expires: 0\r\n" +
		"\r\n"
	for _, size := range chunkSizes {
		var resp protocol.Response
		n, err := feedResponse(&resp, raw, size)
		require.NoErrorf(t, err, "size=%d", size)
		assert.Equal(t, len(raw), n)
		assert.Equal(t, "cached content", resp.Body().String())
		assert.True(t, resp.HasFlag(protocol.FlagChunked))
		assert.True(t, resp.HasFlag(protocol.FlagTrailers))
		assert.Equal(t, "0", resp.Header.Get("Expires"))
	}
}

func TestParseResponseToEOF(t *testing.T) {
	raw := "HTTP/1.0 200 OK\r\nServer: old\r\n\r\nunbounded body"
	p := &Parser{}
	var resp protocol.Response
	p.InitResponse(&resp)

	for _, frag := range []string{raw[:10], raw[10:25], raw[25:]} {
		n, err := p.ParseResponse([]byte(frag))
		require.ErrorIs(t, err, errs.ErrNeedMore)
		assert.Equal(t, len(frag), n)
	}
	assert.False(t, p.Done())
	assert.Equal(t, protocol.BodyToEOF, resp.BodyKind())

	// 连接关闭即正文终结
	require.NoError(t, p.Finish())
	assert.True(t, p.Done())
	assert.True(t, resp.Complete())
	assert.Equal(t, "unbounded body", resp.Body().String())
	// HTTP/1.0 缺省不保持连接
	assert.True(t, resp.HasFlag(protocol.FlagConnClose))
}

func TestParseResponseSmuggling(t *testing.T) {
	expectBlockResponse(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Length: 3\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n")
	expectBlockResponse(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Length: 3\r\nContent-Length: 4\r\n\r\nabc")
	expectBlockResponse(t, "HTTP/1.1 200 OK\r\n"+
		"Transfer-Encoding: identity\r\n\r\n")
}

func TestParseResponseNoHostRequired(t *testing.T) {
	// Host 约束只作用于请求
	var resp protocol.Response
	_, err := feedResponse(&resp, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", 1)
	require.NoError(t, err)
}

func TestParseResponseLeadingEmptyLine(t *testing.T) {
	raw := "\r\nHTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	var resp protocol.Response
	n, err := feedResponse(&resp, raw, 3)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.True(t, resp.HasFlag(protocol.FlagStripCR))

	expectBlockResponse(t, "\r\n\r\nHTTP/1.1 200 OK\r\n\r\n")
}
