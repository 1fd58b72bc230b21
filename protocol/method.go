package protocol

// Method 是已识别的 HTTP 方法。未注册的方法一律按非法处理。
type Method uint8

const (
	MethodUnknown Method = iota
	MethodCopy
	MethodDelete
	MethodGet
	MethodHead
	MethodLock
	MethodMkcol
	MethodMove
	MethodOptions
	MethodPatch
	MethodPost
	MethodPropfind
	MethodProppatch
	MethodPut
	MethodTrace
	MethodUnlock
	MethodPurge
)

var methodStrings = []string{
	MethodUnknown:   "",
	MethodCopy:      "COPY",
	MethodDelete:    "DELETE",
	MethodGet:       "GET",
	MethodHead:      "HEAD",
	MethodLock:      "LOCK",
	MethodMkcol:     "MKCOL",
	MethodMove:      "MOVE",
	MethodOptions:   "OPTIONS",
	MethodPatch:     "PATCH",
	MethodPost:      "POST",
	MethodPropfind:  "PROPFIND",
	MethodProppatch: "PROPPATCH",
	MethodPut:       "PUT",
	MethodTrace:     "TRACE",
	MethodUnlock:    "UNLOCK",
	MethodPurge:     "PURGE",
}

// String 返回方法的线上形式。
func (m Method) String() string {
	if int(m) < len(methodStrings) {
		return methodStrings[m]
	}
	return ""
}

// Bodyless 报告该方法的请求是否不允许携带正文。
func (m Method) Bodyless() bool {
	switch m {
	case MethodGet, MethodHead, MethodDelete, MethodTrace:
		return true
	}
	return false
}

// ParseMethod 将线上形式解析为已注册方法。方法区分大小写，
// 未注册的串返回 MethodUnknown。
func ParseMethod(b []byte) Method {
	if len(b) == 0 {
		return MethodUnknown
	}
	// 先按首字母分流，避免全表扫描
	switch b[0] {
	case 'G':
		if string(b) == "GET" {
			return MethodGet
		}
	case 'H':
		if string(b) == "HEAD" {
			return MethodHead
		}
	case 'P':
		switch string(b) {
		case "POST":
			return MethodPost
		case "PUT":
			return MethodPut
		case "PATCH":
			return MethodPatch
		case "PROPFIND":
			return MethodPropfind
		case "PROPPATCH":
			return MethodProppatch
		case "PURGE":
			return MethodPurge
		}
	case 'D':
		if string(b) == "DELETE" {
			return MethodDelete
		}
	case 'O':
		if string(b) == "OPTIONS" {
			return MethodOptions
		}
	case 'T':
		if string(b) == "TRACE" {
			return MethodTrace
		}
	case 'C':
		if string(b) == "COPY" {
			return MethodCopy
		}
	case 'L':
		if string(b) == "LOCK" {
			return MethodLock
		}
	case 'M':
		switch string(b) {
		case "MKCOL":
			return MethodMkcol
		case "MOVE":
			return MethodMove
		}
	case 'U':
		if string(b) == "UNLOCK" {
			return MethodUnlock
		}
	}
	return MethodUnknown
}
