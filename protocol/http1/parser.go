package http1

import (
	"math"

	errs "github.com/const-t/tempesta/common/errors"
	"github.com/const-t/tempesta/internal/bytesconv"
	"github.com/const-t/tempesta/internal/bytestr"
	"github.com/const-t/tempesta/protocol"
)

type parserState uint8

const (
	sStart parserState = iota
	sStartStripLF
	sStart2
	sMethod
	sURIStart
	sURI
	sURIEscHi
	sURIEscLo
	sScheme
	sSchemeS
	sSchemeSep
	sAuthority
	sVersion
	sVersionDigit
	sReqLineEnd
	sRespVersion
	sRespVersionDigit
	sRespSP
	sStatus
	sReason
	sEOL
	sHdrLineStart
	sHdrName
	sHdrValueStart
	sHdrValue
	sHeadersAlmostDone
	sBodyCL
	sChunkSize
	sChunkExt
	sChunkData
	sChunkDataEnd
	sBodyEOF
	sDone
)

// 标头分类。解析器对这些标头施加专门的字节级校验。
type headerKind uint8

const (
	kindGeneric headerKind = iota
	kindHost
	kindContentLength
	kindTransferEncoding
	kindConnection
	kindIfMatch
	kindIfNoneMatch
	kindTrailer
)

// Connection 值内的候选令牌。
const (
	candClose     = 1 << 0
	candKeepAlive = 1 << 1
)

// 实体标签列表子状态。
const (
	etagItem uint8 = iota // 期待条目或 OWS
	etagQuoted            // 引号内
	etagWeakW             // 已见 W
	etagWeakSlash         // 已见 W/，期待引号
	etagAfter             // 条目结束，期待 OWS、逗号或行尾
	etagStar              // 已见 *，只能到行尾
	etagNext              // 逗号之后，期待下一条目，* 不再合法
)

// 分块扩展累计长度上限。超限视同畸形报文。
const maxChunkExtLen = 4096

// 块长十六进制位数上限，含前导零。
const maxChunkSizeDigits = 16

var litHTTP1Dot = []byte("HTTP/1.")

// Parser 是可续传的 HTTP/1.x 报文解析器。
//
// 每次调用喂入一个连续片段，解析器尽量推进并精确记账：返回 nil 表示
// 报文终结且 n 为本报文在本片内消费的字节数；返回 errs.ErrNeedMore
// 表示片段耗尽、全部 n 字节已消费、状态已保存待续；返回 *errs.Error
// 表示报文被拦截。任意切片方式下结果逐字节一致。
//
// Parser 并发不安全，一个实例同一时刻只解析一个报文。
type Parser struct {
	req  *protocol.Request
	resp *protocol.Response

	state   parserState
	eolNext parserState

	// 字面量匹配进度
	litPos int

	// 数字累加
	acc    uint64
	digits int

	// 方法累积。最长注册方法为 9 字节。
	methodBuf [10]byte
	methodLen int

	// 当前累积目标。mark 指向本片内未落块字节的起点。
	curStr   *protocol.Str
	curField *protocol.HeaderField
	mark     int
	valFlags protocol.ChunkFlags
	escaped  bool

	// 当前标头的专项校验状态
	curKind  headerKind
	owsTail  int
	valDone  bool
	etagSt   uint8
	tokenPos int
	tokenCand uint8

	// 报文级事实
	clSeen   bool
	clValue  uint64
	teSeen   bool
	hostIdx  int
	uriFirst byte

	remaining    uint64
	extLen       int
	inTrailer    bool
	sawTrailerRow bool
}

// InitRequest 绑定待解析的请求并复位全部状态。
func (p *Parser) InitRequest(req *protocol.Request) {
	*p = Parser{req: req, hostIdx: -1}
}

// InitResponse 绑定待解析的响应并复位全部状态。
// 正文定界取决于配对请求与状态码，调用前应完成配对。
func (p *Parser) InitResponse(resp *protocol.Response) {
	*p = Parser{resp: resp, hostIdx: -1}
}

// Done 报告当前报文是否已终结。
func (p *Parser) Done() bool {
	return p.state == sDone
}

// Finish 在连接关闭时终结以 EOF 定界的响应正文。
// 报文处于其他未终结状态时返回错误。
func (p *Parser) Finish() error {
	switch p.state {
	case sDone:
		return nil
	case sBodyEOF:
		p.resp.SetFlag(protocol.FlagComplete)
		p.state = sDone
		return nil
	}
	return errIncomplete
}

// ParseRequest 用片段 data 推进请求解析。
func (p *Parser) ParseRequest(data []byte) (int, error) {
	if p.req == nil {
		return 0, errs.NewPrivate("解析器未绑定请求")
	}
	return p.parse(data)
}

// ParseResponse 用片段 data 推进响应解析。
func (p *Parser) ParseResponse(data []byte) (int, error) {
	if p.resp == nil {
		return 0, errs.NewPrivate("解析器未绑定响应")
	}
	return p.parse(data)
}

func (p *Parser) message() (h *protocol.Headers, body *protocol.Str) {
	if p.req != nil {
		return &p.req.Header, p.req.Body()
	}
	return &p.resp.Header, p.resp.Body()
}

func (p *Parser) setFlag(f protocol.MessageFlags) {
	if p.req != nil {
		p.req.SetFlag(f)
	} else {
		p.resp.SetFlag(f)
	}
}

func (p *Parser) hasFlag(f protocol.MessageFlags) bool {
	if p.req != nil {
		return p.req.HasFlag(f)
	}
	return p.resp.HasFlag(f)
}

// flushTo 将 [mark, i) 落为当前目标的一个块并推进 mark。
func (p *Parser) flushTo(data []byte, i int) {
	if p.curStr == nil || i <= p.mark {
		p.mark = i
		return
	}
	fl := p.valFlags
	if p.escaped {
		fl |= protocol.ChunkFlagUnescape
		p.escaped = false
	}
	p.curStr.Append(data[p.mark:i], fl)
	p.mark = i
}

// eol 预约一个严格的 CRLF 收尾：CR 已见，LF 必须紧随。
func (p *Parser) eol(next parserState) {
	p.state = sEOL
	p.eolNext = next
}

func (p *Parser) parse(data []byte) (int, error) {
	var i int
	p.mark = 0

	for i < len(data) {
		c := data[i]
		switch p.state {

		case sStart:
			switch c {
			case '\r':
				p.state = sStartStripLF
				i++
			case '\n':
				p.setFlag(protocol.FlagStripLF)
				p.state = sStart2
				i++
			default:
				if err := p.routeStartLine(c); err != nil {
					return i, err
				}
			}

		case sStartStripLF:
			if c != '\n' {
				return i, errLineEnding
			}
			p.setFlag(protocol.FlagStripCR | protocol.FlagStripLF)
			p.state = sStart2
			i++

		case sStart2:
			// 至多容忍一个前导空行
			if c == '\r' || c == '\n' {
				return i, errLeadingGarbage
			}
			if err := p.routeStartLine(c); err != nil {
				return i, err
			}

		case sMethod:
			switch {
			case c == ' ':
				m := protocol.ParseMethod(p.methodBuf[:p.methodLen])
				if m == protocol.MethodUnknown {
					return i, errMethod
				}
				p.req.SetMethod(m)
				p.state = sURIStart
				i++
			case isToken(c):
				if p.methodLen == len(p.methodBuf) {
					return i, errMethod
				}
				p.methodBuf[p.methodLen] = c
				p.methodLen++
				i++
			default:
				return i, errMethod
			}

		case sURIStart:
			switch {
			case c == '/' || c == '*':
				p.uriFirst = c
				p.beginStr(p.req.URI(), 0, i)
				p.state = sURI
			case isAlpha(c):
				// 绝对形式，先匹配 scheme
				p.litPos = 0
				p.state = sScheme
			default:
				return i, errURIChar
			}

		case sScheme:
			if p.litPos < len(bytestr.StrHTTP) {
				if bytesconv.ToLowerTable[c] != bytestr.StrHTTP[p.litPos] {
					return i, errURIChar
				}
				p.litPos++
				i++
				break
			}
			p.litPos = 0
			p.state = sSchemeS

		case sSchemeS:
			if bytesconv.ToLowerTable[c] == 's' {
				i++
			}
			p.litPos = 0
			p.state = sSchemeSep

		case sSchemeSep:
			if c != "://"[p.litPos] {
				return i, errURIChar
			}
			p.litPos++
			i++
			if p.litPos == 3 {
				p.beginStr(p.req.Authority(), 0, i)
				p.state = sAuthority
			}

		case sAuthority:
			switch {
			case isAuth(c):
				i++
			case c == '/' || c == '?':
				p.flushTo(data, i)
				if p.req.Authority().Empty() {
					return i, errURIChar
				}
				p.uriFirst = '/'
				if c == '?' {
					// 绝对形式缺省路径折算为 "/"
					p.req.URI().Append(bytestr.StrSlash, 0)
					p.beginStr(p.req.URI(), 0, i)
				} else {
					p.beginStr(p.req.URI(), 0, i)
				}
				p.state = sURI
			case c == ' ':
				p.flushTo(data, i)
				if p.req.Authority().Empty() {
					return i, errURIChar
				}
				p.req.URI().Append(bytestr.StrSlash, 0)
				p.endStr()
				p.litPos = 0
				p.state = sVersion
				i++
			default:
				return i, errURIChar
			}

		case sURI:
			switch {
			case c == '%':
				p.escaped = true
				p.state = sURIEscHi
				i++
			case isURI(c):
				i++
			case c == ' ':
				p.flushTo(data, i)
				if err := p.finishURI(); err != nil {
					return i, err
				}
				p.litPos = 0
				p.state = sVersion
				i++
			default:
				return i, errURIChar
			}

		case sURIEscHi:
			if !isHex(c) {
				return i, errURIEscape
			}
			p.state = sURIEscLo
			i++

		case sURIEscLo:
			if !isHex(c) {
				return i, errURIEscape
			}
			p.state = sURI
			i++

		case sVersion:
			if c != litHTTP1Dot[p.litPos] {
				return i, errVersion
			}
			p.litPos++
			i++
			if p.litPos == len(litHTTP1Dot) {
				p.state = sVersionDigit
			}

		case sVersionDigit:
			switch c {
			case '1':
				p.req.SetVersion(protocol.Version11)
			case '0':
				p.req.SetVersion(protocol.Version10)
			default:
				return i, errVersion
			}
			p.state = sReqLineEnd
			i++

		case sReqLineEnd:
			switch c {
			case '\r':
				p.eol(sHdrLineStart)
				i++
			case '\n':
				p.state = sHdrLineStart
				i++
			default:
				return i, errVersion
			}

		case sRespVersion:
			if c != litHTTP1Dot[p.litPos] {
				return i, errStatusLine
			}
			p.litPos++
			i++
			if p.litPos == len(litHTTP1Dot) {
				p.state = sRespVersionDigit
			}

		case sRespVersionDigit:
			switch c {
			case '1':
				p.resp.SetVersion(protocol.Version11)
			case '0':
				p.resp.SetVersion(protocol.Version10)
			default:
				return i, errStatusLine
			}
			p.state = sRespSP
			i++

		case sRespSP:
			if c != ' ' {
				return i, errStatusLine
			}
			p.acc, p.digits = 0, 0
			p.state = sStatus
			i++

		case sStatus:
			switch {
			case isDigit(c):
				// 状态码恰为三位
				if p.digits == 3 {
					return i, errStatusCode
				}
				p.acc = p.acc*10 + uint64(c-'0')
				p.digits++
				if p.digits == 3 && (p.acc < 100 || p.acc > 599) {
					return i, errStatusCode
				}
				i++
			case c == ' ':
				if p.digits != 3 {
					return i, errStatusLine
				}
				p.resp.SetStatusCode(int(p.acc))
				i++
				p.beginStr(p.resp.Reason(), 0, i)
				p.state = sReason
			case c == '\r' || c == '\n':
				if p.digits != 3 {
					return i, errStatusLine
				}
				p.resp.SetStatusCode(int(p.acc))
				i++
				if c == '\r' {
					p.eol(sHdrLineStart)
				} else {
					p.state = sHdrLineStart
				}
			default:
				return i, errStatusLine
			}

		case sReason:
			switch {
			case c == '\r' || c == '\n':
				p.flushTo(data, i)
				p.endStr()
				i++
				if c == '\r' {
					p.eol(sHdrLineStart)
				} else {
					p.state = sHdrLineStart
				}
			case isValue(c):
				i++
			default:
				return i, errStatusLine
			}

		case sEOL:
			if c != '\n' {
				return i, errLineEnding
			}
			p.state = p.eolNext
			i++

		case sHdrLineStart:
			switch {
			case c == '\r':
				p.state = sHeadersAlmostDone
				i++
			case c == '\n':
				i++
				if err := p.headersComplete(); err != nil {
					return i, err
				}
				if p.state == sDone {
					return i, nil
				}
			case isToken(c):
				h, _ := p.message()
				f := h.Push()
				f.Trailer = p.inTrailer
				if p.inTrailer {
					p.sawTrailerRow = true
				}
				p.curField = f
				p.curKind = kindGeneric
				p.beginStr(&f.Name, protocol.ChunkFlagName, i)
				p.state = sHdrName
			case isOWS(c):
				// 折叠行即走私载体
				return i, errHeaderFold
			default:
				return i, errHeaderName
			}

		case sHdrName:
			switch {
			case isToken(c):
				i++
			case c == ':':
				p.flushTo(data, i)
				if err := p.classifyCurrent(); err != nil {
					return i, err
				}
				p.endStr()
				p.state = sHdrValueStart
				i++
			default:
				// 含名内空白在内一律拦截
				return i, errHeaderName
			}

		case sHdrValueStart:
			switch {
			case isOWS(c):
				i++
			case c == '\r' || c == '\n':
				if err := p.finishHeaderLine(); err != nil {
					return i, err
				}
				i++
				if c == '\r' {
					p.eol(sHdrLineStart)
				} else {
					p.state = sHdrLineStart
				}
			case isValue(c):
				p.beginStr(&p.curField.Value, protocol.ChunkFlagValue, i)
				p.state = sHdrValue
			default:
				return i, errHeaderValueChar
			}

		case sHdrValue:
			if c == '\r' || c == '\n' {
				p.flushTo(data, i)
				p.curField.Value.TrimLastBytes(p.owsTail)
				if err := p.finishHeaderLine(); err != nil {
					return i, err
				}
				i++
				if c == '\r' {
					p.eol(sHdrLineStart)
				} else {
					p.state = sHdrLineStart
				}
				break
			}
			if !isValue(c) {
				return i, errHeaderValueChar
			}
			if isOWS(c) {
				p.owsTail++
			} else {
				p.owsTail = 0
			}
			if err := p.valueByte(data, i, c); err != nil {
				return i, err
			}
			i++

		case sHeadersAlmostDone:
			if c != '\n' {
				return i, errLineEnding
			}
			i++
			if err := p.headersComplete(); err != nil {
				return i, err
			}
			if p.state == sDone {
				return i, nil
			}

		case sBodyCL:
			take := uint64(len(data) - i)
			if take > p.remaining {
				take = p.remaining
			}
			_, body := p.message()
			body.Append(data[i:i+int(take)], 0)
			p.remaining -= take
			i += int(take)
			if p.remaining == 0 {
				p.complete()
				return i, nil
			}

		case sChunkSize:
			switch {
			case isHex(c):
				if p.digits == maxChunkSizeDigits {
					return i, errChunkSize
				}
				p.acc = p.acc<<4 | uint64(bytesconv.Hex2intTable[c])
				p.digits++
				i++
			case c == ';':
				if p.digits == 0 {
					return i, errChunkSize
				}
				p.remaining = p.acc
				p.extLen = 0
				p.state = sChunkExt
				i++
			case c == '\r' || c == '\n':
				if p.digits == 0 {
					return i, errChunkSize
				}
				p.remaining = p.acc
				p.chunkSizeLineEnd(c)
				i++
			default:
				return i, errChunkSize
			}

		case sChunkExt:
			switch {
			case c == '\r' || c == '\n':
				p.chunkSizeLineEnd(c)
				i++
			case isValue(c):
				p.extLen++
				if p.extLen > maxChunkExtLen {
					return i, errChunkExt
				}
				i++
			default:
				return i, errChunkExt
			}

		case sChunkData:
			take := uint64(len(data) - i)
			if take > p.remaining {
				take = p.remaining
			}
			_, body := p.message()
			body.Append(data[i:i+int(take)], 0)
			p.remaining -= take
			i += int(take)
			if p.remaining == 0 {
				p.state = sChunkDataEnd
			}

		case sChunkDataEnd:
			switch c {
			case '\r':
				p.acc, p.digits = 0, 0
				p.eol(sChunkSize)
				i++
			case '\n':
				p.acc, p.digits = 0, 0
				p.state = sChunkSize
				i++
			default:
				return i, errChunkDelim
			}

		case sBodyEOF:
			_, body := p.message()
			body.Append(data[i:], 0)
			i = len(data)

		case sDone:
			// 残余字节属于下一报文
			return i, nil
		}
	}

	// 片段耗尽：落块未完的累积并保存续传状态
	p.flushTo(data, len(data))
	if p.state == sURIEscHi || p.state == sURIEscLo {
		p.escaped = true
	}
	return len(data), errs.ErrNeedMore
}

// routeStartLine 按报文方向分派起始行首字节。
func (p *Parser) routeStartLine(c byte) error {
	if p.resp != nil {
		if c != 'H' {
			return errStatusLine
		}
		p.litPos = 0
		p.state = sRespVersion
		return nil
	}
	if !isToken(c) {
		return errMethod
	}
	p.methodLen = 0
	p.state = sMethod
	return nil
}

// beginStr 把后续字节的累积目标切到 dst。
func (p *Parser) beginStr(dst *protocol.Str, flags protocol.ChunkFlags, i int) {
	p.curStr = dst
	p.valFlags = flags
	p.mark = i
	p.escaped = false
	p.owsTail = 0
	p.valDone = false
}

func (p *Parser) endStr() {
	p.curStr = nil
}

func (p *Parser) finishURI() error {
	p.endStr()
	uri := p.req.URI()
	if uri.Empty() {
		return errURIChar
	}
	// 星号形式有且仅有一个星号
	if p.uriFirst == '*' && uri.Len() != 1 {
		return errURIChar
	}
	return nil
}

// classifyCurrent 在名称完整后确定标头类别并初始化专项校验。
func (p *Parser) classifyCurrent() error {
	name := &p.curField.Name
	if name.Empty() {
		return errHeaderName
	}
	switch {
	case name.EqFold(bytestr.StrHost):
		p.curKind = kindHost
	case name.EqFold(bytestr.StrContentLength):
		p.curKind = kindContentLength
	case name.EqFold(bytestr.StrTransferEncoding):
		p.curKind = kindTransferEncoding
	case name.EqFold(bytestr.StrConnection):
		p.curKind = kindConnection
	case name.EqFold(bytestr.StrIfMatch):
		p.curKind = kindIfMatch
	case name.EqFold(bytestr.StrIfNoneMatch):
		p.curKind = kindIfNoneMatch
	case name.EqFold(bytestr.StrTrailer):
		p.curKind = kindTrailer
	default:
		p.curKind = kindGeneric
	}
	if p.inTrailer {
		switch p.curKind {
		case kindHost, kindContentLength, kindTransferEncoding,
			kindConnection, kindTrailer:
			return errTrailerName
		}
	}
	switch p.curKind {
	case kindContentLength:
		p.acc, p.digits = 0, 0
	case kindConnection:
		p.tokenPos, p.tokenCand = 0, candClose|candKeepAlive
	case kindIfMatch, kindIfNoneMatch:
		p.etagSt = etagItem
	}
	return nil
}

// valueByte 执行当前标头类别的字节级校验与标记。
func (p *Parser) valueByte(data []byte, i int, c byte) error {
	switch p.curKind {
	case kindContentLength:
		switch {
		case isDigit(c):
			if p.valDone {
				return errContentLength
			}
			// 前导零只允许单个 "0"
			if p.digits > 0 && p.acc == 0 {
				return errContentLength
			}
			d := uint64(c - '0')
			if p.acc > (math.MaxUint64-d)/10 {
				return errContentLength
			}
			p.acc = p.acc*10 + d
			p.digits++
		case isOWS(c):
			p.valDone = true
		default:
			return errContentLength
		}

	case kindHost:
		if p.req == nil {
			return nil
		}
		switch {
		case isAuth(c):
			if p.valDone {
				return errHeaderValueChar
			}
		case isOWS(c):
			p.valDone = true
		default:
			return errHeaderValueChar
		}

	case kindConnection:
		if c == ',' || isOWS(c) {
			p.connTokenEnd()
			return nil
		}
		lc := bytesconv.ToLowerTable[c]
		if p.tokenCand&candClose != 0 &&
			(p.tokenPos >= len(bytestr.StrClose) || bytestr.StrClose[p.tokenPos] != lc) {
			p.tokenCand &^= candClose
		}
		if p.tokenCand&candKeepAlive != 0 &&
			(p.tokenPos >= len(bytestr.StrKeepAlive) || bytestr.StrKeepAlive[p.tokenPos] != lc) {
			p.tokenCand &^= candKeepAlive
		}
		p.tokenPos++

	case kindIfMatch, kindIfNoneMatch:
		return p.etagByte(data, i, c)
	}
	return nil
}

func (p *Parser) connTokenEnd() {
	if p.tokenPos > 0 {
		if p.tokenCand&candClose != 0 && p.tokenPos == len(bytestr.StrClose) {
			p.setFlag(protocol.FlagConnClose)
		}
		if p.tokenCand&candKeepAlive != 0 && p.tokenPos == len(bytestr.StrKeepAlive) {
			p.setFlag(protocol.FlagKeepAlive)
		}
	}
	p.tokenPos, p.tokenCand = 0, candClose|candKeepAlive
}

// etagByte 推进实体标签列表子状态，并按块边界切换子值标记。
func (p *Parser) etagByte(data []byte, i int, c byte) error {
	switch p.etagSt {
	case etagItem, etagNext:
		switch {
		case c == '"':
			// 引号本身不属于子值
			p.flushTo(data, i+1)
			p.valFlags |= protocol.ChunkFlagSubValue
			p.etagSt = etagQuoted
		case c == 'W':
			p.etagSt = etagWeakW
		case c == '*' && p.etagSt == etagItem:
			p.flushTo(data, i)
			p.valFlags |= protocol.ChunkFlagSubValue
			p.flushTo(data, i+1)
			p.valFlags &^= protocol.ChunkFlagSubValue
			p.etagSt = etagStar
		case isOWS(c):
		default:
			return errETag
		}
	case etagQuoted:
		switch {
		case c == '"':
			p.flushTo(data, i)
			p.valFlags &^= protocol.ChunkFlagSubValue
			p.etagSt = etagAfter
		case isEtag(c):
		default:
			return errETag
		}
	case etagWeakW:
		if c != '/' {
			return errETag
		}
		p.etagSt = etagWeakSlash
	case etagWeakSlash:
		if c != '"' {
			return errETag
		}
		p.flushTo(data, i+1)
		p.valFlags |= protocol.ChunkFlagSubValue
		p.etagSt = etagQuoted
	case etagAfter:
		switch {
		case c == ',':
			p.etagSt = etagNext
		case isOWS(c):
		default:
			return errETag
		}
	case etagStar:
		if !isOWS(c) {
			return errETag
		}
	}
	return nil
}

// finishHeaderLine 在值完整（含尾部 OWS 修剪）后施加类别级校验。
func (p *Parser) finishHeaderLine() error {
	f := p.curField
	p.endStr()
	switch p.curKind {
	case kindContentLength:
		if p.digits == 0 {
			return errContentLength
		}
		if p.clSeen && p.clValue != p.acc {
			return errContentLengthDup
		}
		p.clSeen = true
		p.clValue = p.acc

	case kindHost:
		if p.req == nil {
			break
		}
		if f.Value.Empty() {
			return errHostEmpty
		}
		h := &p.req.Header
		if p.hostIdx >= 0 {
			if !h.At(p.hostIdx).Value.EqStr(&f.Value) {
				return errHostDup
			}
			break
		}
		p.hostIdx = h.Len() - 1

	case kindTransferEncoding:
		if p.teSeen {
			return errTransferEncoding
		}
		if !f.Value.EqFold(bytestr.StrChunked) {
			return errTransferEncoding
		}
		p.teSeen = true

	case kindConnection:
		p.connTokenEnd()

	case kindIfMatch, kindIfNoneMatch:
		if p.etagSt != etagAfter && p.etagSt != etagStar {
			return errETag
		}
	}
	p.curField = nil
	return nil
}

// headersComplete 在空行处收束标头部分并决定正文定界。
func (p *Parser) headersComplete() error {
	if p.inTrailer {
		if p.sawTrailerRow {
			p.setFlag(protocol.FlagTrailers)
		}
		p.complete()
		return nil
	}
	p.setFlag(protocol.FlagHeadersParsed)
	if p.teSeen && p.clSeen {
		return errSmuggling
	}

	if p.req != nil {
		req := p.req
		if req.Version() == protocol.Version11 && p.hostIdx < 0 {
			return errHostMissing
		}
		if req.Version() == protocol.Version10 && !req.HasFlag(protocol.FlagKeepAlive) {
			req.SetFlag(protocol.FlagConnClose)
		}
		switch {
		case p.teSeen:
			if req.Method().Bodyless() {
				return errBodylessMethod
			}
			req.SetBodyKind(protocol.BodyChunked)
			req.SetFlag(protocol.FlagChunked)
			p.acc, p.digits = 0, 0
			p.state = sChunkSize
		case p.clSeen:
			if p.clValue > 0 && req.Method().Bodyless() {
				return errBodylessMethod
			}
			req.SetContentLength(p.clValue)
			if p.clValue == 0 {
				p.complete()
				return nil
			}
			p.remaining = p.clValue
			p.state = sBodyCL
		default:
			p.complete()
		}
		return nil
	}

	resp := p.resp
	if resp.Version() == protocol.Version10 && !resp.HasFlag(protocol.FlagKeepAlive) {
		resp.SetFlag(protocol.FlagConnClose)
	}
	if resp.VoidBody() {
		// 定界声明对无正文响应不生效
		resp.SetFlag(protocol.FlagVoidBody)
		if p.clSeen {
			resp.SetContentLength(p.clValue)
		}
		p.complete()
		return nil
	}
	switch {
	case p.teSeen:
		resp.SetBodyKind(protocol.BodyChunked)
		resp.SetFlag(protocol.FlagChunked)
		p.acc, p.digits = 0, 0
		p.state = sChunkSize
	case p.clSeen:
		resp.SetContentLength(p.clValue)
		if p.clValue == 0 {
			p.complete()
			return nil
		}
		p.remaining = p.clValue
		p.state = sBodyCL
	default:
		resp.SetBodyKind(protocol.BodyToEOF)
		p.state = sBodyEOF
	}
	return nil
}

// chunkSizeLineEnd 在块长行结束处选择下一状态：
// 零长块进入尾部标头，否则进入块数据。
func (p *Parser) chunkSizeLineEnd(c byte) {
	next := sChunkData
	if p.remaining == 0 {
		p.inTrailer = true
		next = sHdrLineStart
	}
	p.acc, p.digits = 0, 0
	if c == '\r' {
		p.eol(next)
	} else {
		p.state = next
	}
}

func (p *Parser) complete() {
	p.setFlag(protocol.FlagComplete)
	p.state = sDone
}
