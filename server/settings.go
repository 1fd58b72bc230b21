package server

import (
	"os"
	"time"

	"github.com/const-t/tempesta/common/config"
	errs "github.com/const-t/tempesta/common/errors"
	tjson "github.com/const-t/tempesta/common/json"
)

// Settings 是设置文件的结构，JSON 编码。
// 时长字段使用 Go 时长字面量，如 "200ms"、"3m"。
// 缺省字段不覆盖既有配置；h2c 与 reuse_addr 默认开启，
// 用指针区分“未写”与“显式关闭”。
type Settings struct {
	Listen             []string `json:"listen,omitempty"`
	ReadTimeout        string   `json:"read_timeout,omitempty"`
	WriteTimeout       string   `json:"write_timeout,omitempty"`
	IdleTimeout        string   `json:"idle_timeout,omitempty"`
	KeepAliveTimeout   string   `json:"keepalive_timeout,omitempty"`
	ExitWaitTimeout    string   `json:"exit_wait_timeout,omitempty"`
	MaxRequestBodySize int      `json:"max_request_body_size,omitempty"`
	ReadBufferSize     int      `json:"read_buffer_size,omitempty"`
	DisableKeepalive   bool     `json:"disable_keepalive,omitempty"`
	H2C                *bool    `json:"h2c,omitempty"`
	ReuseAddr          *bool    `json:"reuse_addr,omitempty"`
	FreeBind           bool     `json:"free_bind,omitempty"`
	HeaderTableSize    uint32   `json:"header_table_size,omitempty"`
	MaxFrameSize       uint32   `json:"max_frame_size,omitempty"`
}

// LoadSettings 读取并解码给定路径的设置文件。
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st := &Settings{}
	if err = tjson.Unmarshal(data, st); err != nil {
		return nil, errs.New(err, errs.ErrorTypePrivate, "解码设置文件出错")
	}
	return st, nil
}

// Options 把设置转换为配置函数，缺省字段不生成对应项。
// 设置中的 listen 清单整体替换既有监听指令。
func (st *Settings) Options() ([]config.Option, error) {
	var opts []config.Option

	durations := []struct {
		val string
		opt func(time.Duration) config.Option
	}{
		{st.ReadTimeout, WithReadTimeout},
		{st.WriteTimeout, WithWriteTimeout},
		{st.IdleTimeout, WithIdleTimeout},
		{st.KeepAliveTimeout, WithKeepAliveTimeout},
		{st.ExitWaitTimeout, WithExitWaitTimeout},
	}
	for _, d := range durations {
		if d.val == "" {
			continue
		}
		t, err := time.ParseDuration(d.val)
		if err != nil {
			return nil, errs.New(err, errs.ErrorTypePrivate,
				"无法解析设置中的时长："+d.val)
		}
		opts = append(opts, d.opt(t))
	}

	if len(st.Listen) > 0 {
		listens := st.Listen
		opts = append(opts, config.Option{F: func(o *config.Options) {
			o.Listens = append([]string(nil), listens...)
		}})
	}
	if st.MaxRequestBodySize > 0 {
		opts = append(opts, WithMaxRequestBodySize(st.MaxRequestBodySize))
	}
	if st.ReadBufferSize > 0 {
		opts = append(opts, WithReadBufferSize(st.ReadBufferSize))
	}
	if st.DisableKeepalive {
		opts = append(opts, WithDisableKeepalive(true))
	}
	if st.H2C != nil {
		opts = append(opts, WithH2C(*st.H2C))
	}
	if st.ReuseAddr != nil {
		opts = append(opts, WithReuseAddr(*st.ReuseAddr))
	}
	if st.FreeBind {
		opts = append(opts, WithFreeBind(true))
	}
	if st.HeaderTableSize > 0 {
		opts = append(opts, WithHeaderTableSize(st.HeaderTableSize))
	}
	if st.MaxFrameSize > 0 {
		opts = append(opts, WithMaxFrameSize(st.MaxFrameSize))
	}
	return opts, nil
}
