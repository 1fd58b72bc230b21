package bytesconv

// Hex2intTable 是十六进制字符的数值表，非十六进制字符为 16。
var Hex2intTable = func() [256]byte {
	var b [256]byte
	for i := 0; i < 256; i++ {
		c := byte(16)
		if i >= '0' && i <= '9' {
			c = byte(i) - '0'
		} else if i >= 'a' && i <= 'f' {
			c = byte(i) - 'a' + 10
		} else if i >= 'A' && i <= 'F' {
			c = byte(i) - 'A' + 10
		}
		b[i] = c
	}
	return b
}()

// ToLowerTable 是 ASCII 大写字母到小写字母的映射表。
var ToLowerTable = func() [256]byte {
	var b [256]byte
	for i := 0; i < 256; i++ {
		c := byte(i)
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return b
}()

// ToUpperTable 是 ASCII 小写字母到大写字母的映射表。
var ToUpperTable = func() [256]byte {
	var b [256]byte
	for i := 0; i < 256; i++ {
		c := byte(i)
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return b
}()
