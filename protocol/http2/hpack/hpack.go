// Package hpack 实现 RFC 7541 标头压缩：静态与动态索引表、
// 整数与字符串原语、霍夫曼编码，以及面向单条连接的
// 解码器与编码器。解码器产出的字节在报文释放前保持有效。
package hpack

import (
	"github.com/const-t/tempesta/internal/bytesconv"
)

// Field 是一条解码后的标头。Sensitive 标记从不索引的字面量，
// 转发时必须原样保留该属性。
type Field struct {
	Name      []byte
	Value     []byte
	Sensitive bool
}

type tableEntry struct {
	name  []byte
	value []byte
}

// 每个表项除名值外计入的固定开销（RFC 7541 §4.1）。
const entryOverhead = 32

const staticCount = 61

// staticPairs 按 RFC 7541 附录 A 的顺序收录静态表。
var staticPairs = [staticCount][2]string{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

var (
	staticEntries [staticCount]tableEntry
	// 编码侧查找：名与名值串到静态索引
	staticByName      map[string]uint32
	staticByNameValue map[string]uint32
)

func init() {
	staticByName = make(map[string]uint32, staticCount)
	staticByNameValue = make(map[string]uint32, staticCount)
	for i, p := range staticPairs {
		staticEntries[i] = tableEntry{
			name:  bytesconv.S2b(p[0]),
			value: bytesconv.S2b(p[1]),
		}
		idx := uint32(i + 1)
		if _, ok := staticByName[p[0]]; !ok {
			staticByName[p[0]] = idx
		}
		if p[1] != "" {
			staticByNameValue[p[0]+"\x00"+p[1]] = idx
		}
	}
}
