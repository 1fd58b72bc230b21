package server

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/const-t/tempesta/common/hlog"
)

// Watcher 监视设置文件，写入后重新解码并回调。
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// WatchSettings 监视 path 指向的设置文件，每次写入后重新解码并调用
// onReload。编辑器常以改名替换文件，因此监视的是其所在目录。
// 解码失败只记录日志并继续监视。
func WatchSettings(path string, onReload func(*Settings)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go w.loop(onReload)
	hlog.SystemLogger().Infof("正在监视设置文件：%s", abs)
	return w, nil
}

func (w *Watcher) loop(onReload func(*Settings)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path ||
				event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			st, err := LoadSettings(w.path)
			if err != nil {
				hlog.SystemLogger().Errorf("重载设置文件出错：%v", err)
				continue
			}
			hlog.SystemLogger().Infof("设置文件已变更：%s", event.Name)
			onReload(st)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			hlog.SystemLogger().Errorf("监视设置文件出错：%v", err)
		case <-w.done:
			return
		}
	}
}

// Close 停止监视。可重复调用。
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
