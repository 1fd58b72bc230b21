package http2

// flow 是一侧流控窗口的账本。所有加减都发生在连接的接收协程内，
// 不加锁。流级账本经 setConnFlow 挂到连接级账本上：take 两级同时
// 扣减，available 取两级较小值。
type flow struct {
	n int32

	// conn 指向连接级账本；连接级账本自身为 nil。
	conn *flow
}

func (f *flow) setConnFlow(cf *flow) { f.conn = cf }

// available 返回当前可扣减的窗口余量。
func (f *flow) available() int32 {
	n := f.n
	if f.conn != nil && f.conn.n < n {
		n = f.conn.n
	}
	return n
}

// take 扣减 n 字节。调用方须先以 available 确认余量充足。
func (f *flow) take(n int32) {
	if n > f.available() {
		panic("flow 窗口余量不足")
	}
	f.n -= n
	if f.conn != nil {
		f.conn.n -= n
	}
}

// add 为窗口增加 n 字节，n 可为负。
// 若结果将越过 2^31-1 则不改动窗口并返回 false。
func (f *flow) add(n int32) bool {
	sum := f.n + n
	if (sum > n) == (f.n > 0) {
		f.n = sum
		return true
	}
	return false
}
