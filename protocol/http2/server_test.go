package http2

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/common/mock"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/protocol"
	"github.com/const-t/tempesta/protocol/consts"
	"github.com/const-t/tempesta/protocol/http2/config"
	"github.com/const-t/tempesta/protocol/http2/hpack"
	"github.com/const-t/tempesta/protocol/suite"
)

// mockCore 以固定处理器实现 suite.Core。
type mockCore struct {
	stopped bool
	served  int
	handler func(c context.Context, req *protocol.Request, resp *protocol.Response)
}

func (m *mockCore) IsRunning() bool {
	return !m.stopped
}

func (m *mockCore) ServeHTTP(c context.Context, req *protocol.Request, resp *protocol.Response) {
	m.served++
	if m.handler != nil {
		m.handler(c, req, resp)
	}
}

func newTestServer(core suite.Core, opts ...config.Option) *Server {
	return &Server{BaseEngine: BaseEngine{
		Config: *config.NewConfig(opts...),
		Core:   core,
	}}
}

// readWritten 取回已刷新的全部出站字节。
func readWritten(t *testing.T, rec mock.Recorder) []byte {
	t.Helper()
	n := rec.WroteLen()
	if n == 0 {
		return nil
	}
	out, err := rec.ReadBinary(n)
	require.NoError(t, err)
	return out
}

// wireReq 描述客户端侧编排的一条完整请求。
type wireReq struct {
	streamID uint32
	fields   []hpack.Field
	body     string
}

// clientBytes 组装客户端的连线字节：前言、SETTINGS 与各请求帧。
// 同一次组装内的标头块共享一份编码器动态表。
func clientBytes(reqs ...wireReq) string {
	enc := hpack.NewEncoder(defaultHeaderTableSize)
	b := append([]byte(nil), bytestr.StrHTTP2Preface...)
	b = AppendSettings(b)
	for _, r := range reqs {
		var blk []byte
		for _, f := range r.fields {
			blk = enc.AppendField(blk, f)
		}
		b = AppendHeaders(b, HeadersParam{
			StreamID:   r.streamID,
			Fragment:   blk,
			EndStream:  r.body == "",
			EndHeaders: true,
		})
		if r.body != "" {
			b = AppendData(b, r.streamID, true, []byte(r.body))
		}
	}
	return string(b)
}

func goAwayOf(t *testing.T, frames []wireFrame) (lastStream uint32, code ErrCode) {
	t.Helper()
	for _, f := range frames {
		if f.Type == FrameGoAway {
			require.GreaterOrEqual(t, len(f.Payload), 8)
			return be32(f.Payload) & 0x7fffffff, ErrCode(be32(f.Payload[4:]))
		}
	}
	t.Fatal("未见 GOAWAY 帧")
	return 0, 0
}

func TestServeEmptyConnectionSpeaksFirst(t *testing.T) {
	server := newTestServer(&mockCore{})

	// 未收到任何字节也先行通告本端 SETTINGS 与连接窗口
	conn := mock.NewFragmentConn("", 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	require.Len(t, frames, 3)
	assert.Equal(t, FrameSettings, frames[0].Type)
	assert.False(t, frames[0].Flags.Has(FlagAck))
	assert.Equal(t, FrameWindowUpdate, frames[1].Type)
	assert.Equal(t, uint32(0), frames[1].StreamID)
	assert.Equal(t, uint32(983041), be32(frames[1].Payload))
	last, code := goAwayOf(t, frames)
	assert.Equal(t, uint32(0), last)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeSimpleGET(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			assert.Equal(t, protocol.MethodGet, req.Method())
			assert.Equal(t, "/hello", req.URI().String())
			assert.Equal(t, "example.com", req.Authority().String())
			resp.SetStatusCode(consts.StatusOK)
			resp.Body().Append([]byte("hello, tempesta"), 0)
		},
	}
	server := newTestServer(core)

	conn := mock.NewFragmentConn(clientBytes(wireReq{streamID: 1, fields: getFields("/hello")}), 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.Equal(t, 1, core.served)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	require.Len(t, frames, 6)
	assert.Equal(t, FrameSettings, frames[0].Type)
	assert.Equal(t, FrameWindowUpdate, frames[1].Type)
	require.Equal(t, FrameSettings, frames[2].Type)
	assert.True(t, frames[2].Flags.Has(FlagAck))

	h := frames[3]
	require.Equal(t, FrameHeaders, h.Type)
	assert.Equal(t, uint32(1), h.StreamID)
	assert.True(t, h.Flags.Has(FlagEndHeaders))
	assert.False(t, h.Flags.Has(FlagEndStream))
	lines, _ := decodeHeaderBlock(t, hpack.NewDecoder(defaultHeaderTableSize), h.Payload)
	assert.Equal(t, []string{":status: 200", "content-length: 15"}, lines)

	d := frames[4]
	require.Equal(t, FrameData, d.Type)
	assert.Equal(t, uint32(1), d.StreamID)
	assert.True(t, d.Flags.Has(FlagEndStream))
	assert.Equal(t, "hello, tempesta", string(d.Payload))

	last, code := goAwayOf(t, frames)
	assert.Equal(t, uint32(1), last)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeRequestWithBody(t *testing.T) {
	var gotBody string
	var gotCL uint64
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			gotBody = req.Body().String()
			gotCL = req.ContentLength()
			resp.Body().Append([]byte("ok"), 0)
		},
	}
	server := newTestServer(core)

	raw := clientBytes(wireReq{streamID: 1, fields: postFields("/upload", "11"), body: "hello world"})
	conn := mock.NewFragmentConn(raw, 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.Equal(t, "hello world", gotBody)
	assert.Equal(t, uint64(11), gotCL)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	require.Len(t, frames, 7)
	// 正文字节即时向连接级窗口回补
	wu := frames[3]
	require.Equal(t, FrameWindowUpdate, wu.Type)
	assert.Equal(t, uint32(0), wu.StreamID)
	assert.Equal(t, uint32(11), be32(wu.Payload))
	assert.Equal(t, FrameHeaders, frames[4].Type)
	require.Equal(t, FrameData, frames[5].Type)
	assert.Equal(t, "ok", string(frames[5].Payload))
}

func TestServeFragmentedDelivery(t *testing.T) {
	raw := clientBytes(wireReq{streamID: 1, fields: postFields("/upload", "11"), body: "hello world"})
	for _, size := range chunkSizes {
		var gotBody string
		core := &mockCore{
			handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
				gotBody = req.Body().String()
				resp.Body().Append([]byte("ok"), 0)
			},
		}
		server := newTestServer(core)

		conn := mock.NewFragmentConn(raw, size)
		err := server.Serve(context.Background(), conn)
		assert.Truef(t, errors.Is(err, errs.ErrIdleTimeout), "size=%d err=%v", size, err)
		require.Equalf(t, 1, core.served, "size=%d", size)
		assert.Equalf(t, "hello world", gotBody, "size=%d", size)

		frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
		var resps []wireFrame
		for _, f := range frames {
			if f.StreamID == 1 {
				resps = append(resps, f)
			}
		}
		require.Lenf(t, resps, 2, "size=%d", size)
		assert.Equalf(t, FrameHeaders, resps[0].Type, "size=%d", size)
		require.Equalf(t, FrameData, resps[1].Type, "size=%d", size)
		assert.Equalf(t, "ok", string(resps[1].Payload), "size=%d", size)
		_, code := goAwayOf(t, frames)
		assert.Equalf(t, ErrCodeNo, code, "size=%d", size)
	}
}

func TestServeKeepaliveSequentialStreams(t *testing.T) {
	var paths []string
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			paths = append(paths, req.URI().String())
			resp.Body().Append([]byte("ok: "+req.URI().String()), 0)
		},
	}
	server := newTestServer(core)

	raw := clientBytes(
		wireReq{streamID: 1, fields: getFields("/first")},
		wireReq{streamID: 3, fields: postFields("/second", "3"), body: "abc"},
	)
	conn := mock.NewFragmentConn(raw, 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.Equal(t, []string{"/first", "/second"}, paths)

	// 两条流的响应块按冲刷序共享本端编码器动态表
	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	dec := hpack.NewDecoder(defaultHeaderTableSize)
	bodies := map[uint32]string{}
	for _, f := range frames {
		switch f.Type {
		case FrameHeaders:
			lines, _ := decodeHeaderBlock(t, dec, f.Payload)
			require.NotEmpty(t, lines)
			assert.Equal(t, ":status: 200", lines[0])
		case FrameData:
			bodies[f.StreamID] += string(f.Payload)
		}
	}
	assert.Equal(t, "ok: /first", bodies[1])
	assert.Equal(t, "ok: /second", bodies[3])

	last, code := goAwayOf(t, frames)
	assert.Equal(t, uint32(3), last)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeStreamErrorRecovers(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			resp.Body().Append([]byte("ok"), 0)
		},
	}
	server := newTestServer(core)

	enc := hpack.NewEncoder(defaultHeaderTableSize)
	block := func(fields []hpack.Field) []byte {
		var blk []byte
		for _, f := range fields {
			blk = enc.AppendField(blk, f)
		}
		return blk
	}
	var b []byte
	b = append(b, bytestr.StrHTTP2Preface...)
	b = AppendSettings(b)
	b = AppendHeaders(b, HeadersParam{StreamID: 1, Fragment: block(getFields("/a")), EndStream: true, EndHeaders: true})
	// 已收尾的流上又来 DATA：流级违例，连接照常服务后续流
	b = AppendData(b, 1, true, []byte("x"))
	b = AppendHeaders(b, HeadersParam{StreamID: 3, Fragment: block(getFields("/b")), EndStream: true, EndHeaders: true})

	conn := mock.NewFragmentConn(string(b), 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.Equal(t, 2, core.served)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	requireRST(t, frames, 1, ErrCodeStreamClosed)
	var dataStreams []uint32
	for _, f := range frames {
		if f.Type == FrameData {
			dataStreams = append(dataStreams, f.StreamID)
		}
	}
	assert.Equal(t, []uint32{1, 3}, dataStreams)
	_, code := goAwayOf(t, frames)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeBlockedConnection(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			t.Fatal("被拦截的连接不得到达处理器")
		},
	}
	server := newTestServer(core)

	// HTTP/1 字节打到 HTTP/2 入口：前言比对失败即封禁
	conn := mock.NewConn("GET / HTTP/1.1\r\nHost: a\r\n\r\n")
	err := server.Serve(context.Background(), conn)
	requireConnErr(t, err, ErrCodeProtocol)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	_, code := goAwayOf(t, frames)
	assert.Equal(t, ErrCodeProtocol, code)
}

func TestServeIdleTimeout(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			resp.Body().Append([]byte("ok"), 0)
		},
	}
	server := newTestServer(core, config.WithIdleTimeout(20*time.Millisecond))

	conn := mock.NewConn(clientBytes(wireReq{streamID: 1, fields: getFields("/")}))
	start := time.Now()
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	// 无活动流时按空闲超时守候
	assert.Equal(t, 20*time.Millisecond, conn.GetReadTimeout())

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	_, code := goAwayOf(t, frames)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeTruncatedStream(t *testing.T) {
	core := &mockCore{}
	server := newTestServer(core,
		config.WithReadTimeout(123*time.Millisecond),
		config.WithIdleTimeout(456*time.Millisecond),
	)

	// 标头到齐而正文残缺：流仍活动，按 ReadTimeout 守候
	enc := hpack.NewEncoder(defaultHeaderTableSize)
	var blk []byte
	for _, f := range postFields("/upload", "5") {
		blk = enc.AppendField(blk, f)
	}
	var b []byte
	b = append(b, bytestr.StrHTTP2Preface...)
	b = AppendSettings(b)
	b = AppendHeaders(b, HeadersParam{StreamID: 1, Fragment: blk, EndHeaders: true})

	conn := mock.NewFragmentConn(string(b), 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, 0, core.served)
	assert.Equal(t, 123*time.Millisecond, conn.GetReadTimeout())

	// 残缺流上无 GOAWAY，断连即断连
	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	for _, f := range frames {
		assert.NotEqual(t, FrameGoAway, f.Type)
	}
}

func TestServeDisableKeepalive(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			resp.Body().Append([]byte("bye"), 0)
		},
	}
	server := newTestServer(core, config.WithDisableKeepalive(true))

	conn := mock.NewFragmentConn(clientBytes(wireReq{streamID: 1, fields: getFields("/")}), 0)
	err := server.Serve(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 1, core.served)

	// 响应先行送达，GOAWAY 收尾
	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	last, code := goAwayOf(t, frames)
	assert.Equal(t, uint32(1), last)
	assert.Equal(t, ErrCodeNo, code)
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Equal(t, FrameGoAway, frames[len(frames)-1].Type)
	assert.Equal(t, FrameData, frames[len(frames)-2].Type)
}

func TestServeCoreStopped(t *testing.T) {
	core := &mockCore{stopped: true}
	server := newTestServer(core)

	conn := mock.NewFragmentConn(clientBytes(wireReq{streamID: 1, fields: getFields("/")}), 0)
	err := server.Serve(context.Background(), conn)
	require.NoError(t, err)
	// 停机中的内核仍送走在途请求，再以 GOAWAY 收尾
	assert.Equal(t, 1, core.served)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	_, code := goAwayOf(t, frames)
	assert.Equal(t, ErrCodeNo, code)
}

func TestServeResponseWindowParkedThenDrained(t *testing.T) {
	core := &mockCore{
		handler: func(c context.Context, req *protocol.Request, resp *protocol.Response) {
			resp.Body().Append([]byte("hello world"), 0)
		},
	}
	server := newTestServer(core)

	enc := hpack.NewEncoder(defaultHeaderTableSize)
	var blk []byte
	for _, f := range getFields("/") {
		blk = enc.AppendField(blk, f)
	}
	var b []byte
	b = append(b, bytestr.StrHTTP2Preface...)
	b = AppendSettings(b, Setting{SettingInitialWindowSize, 4})
	b = AppendHeaders(b, HeadersParam{StreamID: 1, Fragment: blk, EndStream: true, EndHeaders: true})
	// 响应残余暂存流上，对端回补窗口后续发
	b = AppendWindowUpdate(b, 1, 100)

	conn := mock.NewFragmentConn(string(b), 0)
	err := server.Serve(context.Background(), conn)
	assert.True(t, errors.Is(err, errs.ErrIdleTimeout))
	assert.Equal(t, 1, core.served)

	frames := parseFrames(t, readWritten(t, conn.WriterRecorder()))
	var datas []wireFrame
	for _, f := range frames {
		if f.Type == FrameData && f.StreamID == 1 {
			datas = append(datas, f)
		}
	}
	require.Len(t, datas, 2)
	assert.Equal(t, "hell", string(datas[0].Payload))
	assert.False(t, datas[0].Flags.Has(FlagEndStream))
	assert.Equal(t, "o world", string(datas[1].Payload))
	assert.True(t, datas[1].Flags.Has(FlagEndStream))
}
