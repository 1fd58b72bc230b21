package http2

import (
	"github.com/const-t/tempesta/common/bytebufferpool"
	"github.com/const-t/tempesta/protocol"
)

// StreamState 是 RFC 9113 §5.1 流状态机中服务端可观测的状态。
// 本端不发起流，idle 的流不占内存，open 起才有实例。
type StreamState uint8

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamHalfClosedRemote
	StreamClosed
)

var streamStateName = [...]string{
	StreamIdle:             "idle",
	StreamOpen:             "open",
	StreamHalfClosedRemote: "half-closed(remote)",
	StreamClosed:           "closed",
}

func (s StreamState) String() string {
	if int(s) < len(streamStateName) {
		return streamStateName[s]
	}
	return "unknown"
}

// Stream 承载一条流的装配现场：标头块累积、HPACK 字面量竞技场、
// 正文累积与定界校验计数。实例只被连接的接收协程触碰。
type Stream struct {
	id    uint32
	state StreamState
	req   *protocol.Request

	// inflow 是本端授予对端的接收窗口。DATA 到达即扣减，
	// 载荷消化后由连接排队 WINDOW_UPDATE 回补。
	inflow flow

	// outflow 是对端授予本端的发送窗口，由对端 WINDOW_UPDATE 回补。
	outflow flow

	// block 累积可能跨多个 CONTINUATION 的标头块。已解码前缀仍被
	// 报文的字段借用，在流释放前不得复用。
	block *bytebufferpool.ByteBuffer

	// decoded 是 block 中已解码的前缀长度，尾标头块从这里续接。
	decoded int

	// arena 承接霍夫曼解码产出的字面量，寿命同 block。
	arena *bytebufferpool.ByteBuffer

	// body 累积 DATA 载荷，终结时整体挂到请求正文上。
	body *bytebufferpool.ByteBuffer

	headersDone bool // 首个标头块已终结
	endStream   bool // 对端已半关（END_STREAM）
	trailers    bool // 当前累积的块是尾标头

	// refused 的流只为维持压缩上下文而解码，产物全部丢弃，
	// 块终结时以 refuseCode 重置。
	refused    bool
	refuseCode ErrCode

	clSeen    bool
	declared  uint64 // Content-Length 声明值
	bodyBytes uint64 // 实收 DATA 有效载荷字节数

	// listSize 按 §10.5.1 口径累计已解码字段的列表尺寸。
	listSize uint32

	// malformed 记录块内首个语义违例。解码仍须走完全块以保持
	// 索引同步，重置推迟到块终结。
	malformed error

	sawRegular bool // 当前块内已出现常规字段

	hasMethod    bool
	hasScheme    bool
	hasPath      bool
	hasAuthority bool

	// hostVal 是首个 host 常规字段的值字节，借用自块或竞技场。
	hostVal  []byte
	hostSeen bool

	// pending 暂存发送窗口不足时未能即时送出的响应正文，随对端
	// WINDOW_UPDATE 续发；pendingEnd 记录残余送完后补发 END_STREAM。
	// 残余排空前流不关闭。
	pending    *bytebufferpool.ByteBuffer
	pendingPos int
	pendingEnd bool
}

// ID 返回 31 位流标识。
func (s *Stream) ID() uint32 { return s.id }

// State 返回流的当前状态。
func (s *Stream) State() StreamState { return s.state }

// Request 返回装配中的请求。回调返回或流关闭后实例被回收，
// 越界使用属于调用方错误。
func (s *Stream) Request() *protocol.Request { return s.req }

// fail 登记块内首个语义违例，后续字段照常解码但不再入表。
func (s *Stream) fail(code ErrCode, reason string) {
	if s.malformed == nil {
		s.malformed = streamError(s.id, code, reason)
	}
}

func (s *Stream) acquireBlock() *bytebufferpool.ByteBuffer {
	if s.block == nil {
		s.block = bytebufferpool.Get()
	}
	return s.block
}

func (s *Stream) acquireArena() *bytebufferpool.ByteBuffer {
	if s.arena == nil {
		s.arena = bytebufferpool.Get()
	}
	return s.arena
}

func (s *Stream) acquireBody() *bytebufferpool.ByteBuffer {
	if s.body == nil {
		s.body = bytebufferpool.Get()
	}
	return s.body
}

func (s *Stream) acquirePending() *bytebufferpool.ByteBuffer {
	if s.pending == nil {
		s.pending = bytebufferpool.Get()
	}
	return s.pending
}

// hasPending 报告是否还有待续发的响应正文残余。
func (s *Stream) hasPending() bool {
	return s.pending != nil && s.pendingPos < len(s.pending.B)
}

// release 归还流持有的全部缓冲与请求实例。
func (s *Stream) release() {
	if s.req != nil {
		protocol.ReleaseRequest(s.req)
		s.req = nil
	}
	if s.block != nil {
		bytebufferpool.Put(s.block)
		s.block = nil
	}
	if s.arena != nil {
		bytebufferpool.Put(s.arena)
		s.arena = nil
	}
	if s.body != nil {
		bytebufferpool.Put(s.body)
		s.body = nil
	}
	if s.pending != nil {
		bytebufferpool.Put(s.pending)
		s.pending = nil
	}
}
