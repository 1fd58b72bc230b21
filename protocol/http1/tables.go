package http1

// 字符类判定表。命中为 1，未命中为 0。

func tableOf(allow func(c byte) bool) (t [256]byte) {
	for i := 0; i < 256; i++ {
		if allow(byte(i)) {
			t[i] = 1
		}
	}
	return t
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// tokenTable 对应 RFC 9110 的 tchar：标头名称与方法的合法字节。
var tokenTable = tableOf(func(c byte) bool {
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return isDigit(c) || isAlpha(c)
})

// uriTable 是请求目标路径与查询部分的合法字节（pchar、"/"、"?"），
// 百分号转义的十六进制位另行校验。
var uriTable = tableOf(func(c byte) bool {
	switch c {
	case '-', '.', '_', '~', // unreserved
		'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', // sub-delims
		':', '@', '/', '?', '%':
		return true
	}
	return isDigit(c) || isAlpha(c)
})

// authTable 是绝对形式请求目标中授权段的合法字节。
var authTable = tableOf(func(c byte) bool {
	switch c {
	case '-', '.', '_', '~', ':', '[', ']', '%':
		return true
	}
	return isDigit(c) || isAlpha(c)
})

// valueTable 是标头值的合法字节：VCHAR、SP、HTAB 与 obs-text。
// 控制字节一律拒绝。
var valueTable = tableOf(func(c byte) bool {
	return c == ' ' || c == '\t' || (c >= 0x21 && c <= 0x7e) || c >= 0x80
})

// etagTable 对应 RFC 9110 的 etagc：实体标签引号内的合法字节。
var etagTable = tableOf(func(c byte) bool {
	return c == 0x21 || (c >= 0x23 && c <= 0x7e) || c >= 0x80
})

// hexTable 标记十六进制位。
var hexTable = tableOf(func(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
})

func isToken(c byte) bool  { return tokenTable[c] == 1 }
func isURI(c byte) bool    { return uriTable[c] == 1 }
func isAuth(c byte) bool   { return authTable[c] == 1 }
func isValue(c byte) bool  { return valueTable[c] == 1 }
func isEtag(c byte) bool   { return etagTable[c] == 1 }
func isHex(c byte) bool    { return hexTable[c] == 1 }
func isOWS(c byte) bool    { return c == ' ' || c == '\t' }
