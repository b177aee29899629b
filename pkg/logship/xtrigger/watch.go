package xtrigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// MoveWatcher 监视当前文件所在目录，文件被外部移走或删除后请求轮转，
// 使流在原路径重新打开文件。
//
// 流自身轮转时的重命名同样会产生事件。防抖结束后只有当路径上的文件
// 不再是最近一次 newfile 打开的文件时才会触发，因此自身轮转不会重复触发。
type MoveWatcher struct {
	target  Target
	path    string
	opts    options
	watcher *fsnotify.Watcher
	off     func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	current os.FileInfo
	timer   *time.Timer
	running bool
	stopped bool
}

// NewMoveWatcher 创建监视器并订阅 newfile 事件。需要调用 [MoveWatcher.Start] 开始监视。
func NewMoveWatcher(target Target, path string, opts ...Option) (*MoveWatcher, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("xtrigger: resolve path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xtrigger: failed to create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xtrigger: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &MoveWatcher{
		target:  target,
		path:    abs,
		opts:    applyOptions(opts),
		watcher: fsWatcher,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	w.off = target.On(xstream.EventNewFile, w.onNewFile)
	return w, nil
}

// Start 在后台 goroutine 中开始监视。重复调用无效果。
func (w *MoveWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return
	}
	w.running = true
	go w.run()
}

// Stop 停止监视并释放 fsnotify 资源。可重复调用。
func (w *MoveWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	running := w.running
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.off()
	w.cancel()
	err := w.watcher.Close()
	if running {
		<-w.done
	}
	return err
}

func (w *MoveWatcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(fmt.Errorf("xtrigger: watch: %w", err))
		}
	}
}

// schedule 在防抖时间后检查文件；期间的多个事件合并为一次检查。
func (w *MoveWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.debounce, w.check)
}

func (w *MoveWatcher) check() {
	w.mu.Lock()
	w.timer = nil
	current := w.current
	stopped := w.stopped
	w.mu.Unlock()
	if stopped || current == nil {
		return
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil && os.SameFile(info, current):
		return
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		w.report(fmt.Errorf("xtrigger: stat %s: %w", w.path, err))
		return
	}
	fire(w.target, xrotate.Trigger{Reason: xrotate.ReasonExternal}, w.opts.onError, nil)
}

// onNewFile 记录新打开的文件，作为判断外部移动的基准。
func (w *MoveWatcher) onNewFile(e xstream.Event) {
	info, err := os.Stat(e.File.Path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.current = nil
		return
	}
	w.current = info
}

func (w *MoveWatcher) report(err error) {
	if w.opts.onError != nil {
		w.opts.onError(err)
	}
}
