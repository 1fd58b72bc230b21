package server

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/mockey"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitReload 等待一次 read_timeout 为 want 的重载回调。
// 同一次写入可能触发多个文件系统事件，期间的重复回调忽略。
func waitReload(t *testing.T, ch chan *Settings, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st.ReadTimeout == want {
				return
			}
		case <-deadline:
			t.Fatalf("等待 read_timeout=%s 的重载回调超时", want)
		}
	}
}

func TestWatchSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tempesta.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"read_timeout":"1s"}`), 0o600))

	ch := make(chan *Settings, 8)
	w, err := WatchSettings(path, func(st *Settings) { ch <- st })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"read_timeout":"2s"}`), 0o600))
	waitReload(t, ch, "2s")

	// 解码失败只入日志，继续监视后续写入
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"read_timeout":"3s"}`), 0o600))
	waitReload(t, ch, "3s")

	// 同目录的其他文件不触发回调
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"),
		[]byte(`{"read_timeout":"4s"}`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"read_timeout":"5s"}`), 0o600))
	waitReload(t, ch, "5s")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchSettingsMissingDir(t *testing.T) {
	_, err := WatchSettings(filepath.Join(t.TempDir(), "nowhere", "tempesta.json"),
		func(*Settings) {})
	assert.Error(t, err)
}

func TestWatchSettingsWatcherError(t *testing.T) {
	mockey.PatchConvey("创建监视器失败", t, func() {
		mockey.Mock(fsnotify.NewWatcher).
			Return(nil, errors.New("inotify 实例耗尽")).Build()
		_, err := WatchSettings("tempesta.json", func(*Settings) {})
		assert.Error(t, err)
	})
}
