package hpack

// 整数解码上限。索引、长度与表容量都远低于该值，
// 更长的编码只可能是放大攻击。
const maxIntValue = 1<<28 - 1

// decodeInt 按 N 位前缀文法解码一个整数（RFC 7541 §5.1）。
// 首字节的高位标志由调用方自取，这里只看低 prefix 位。
func decodeInt(buf []byte, prefix uint8) (uint32, []byte, error) {
	if len(buf) == 0 {
		return 0, nil, errTruncated
	}
	mask := uint32(1)<<prefix - 1
	v := uint64(uint32(buf[0]) & mask)
	buf = buf[1:]
	if v < uint64(mask) {
		return uint32(v), buf, nil
	}
	var shift uint
	for i, b := range buf {
		v += uint64(b&0x7f) << shift
		if v > maxIntValue {
			return 0, nil, errIntegerOverflow
		}
		if b&0x80 == 0 {
			return uint32(v), buf[i+1:], nil
		}
		shift += 7
		// 零值续接字节无限拉长也按溢出处理
		if shift > 28 {
			return 0, nil, errIntegerOverflow
		}
	}
	return 0, nil, errTruncated
}

// appendInt 以 N 位前缀文法编码 v，首字节并入 flags。
func appendInt(dst []byte, flags byte, prefix uint8, v uint32) []byte {
	mask := uint32(1)<<prefix - 1
	if v < mask {
		return append(dst, flags|byte(v))
	}
	dst = append(dst, flags|byte(mask))
	v -= mask
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
