package xrotate

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xship/pkg/util/xfile"
)

// State 是轮转器的状态。
type State int32

// 轮转器状态。
const (
	StateUninitialised State = iota
	StateOpen
	StateRotating
	StateClosed
)

// String 返回状态名称。
func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateOpen:
		return "open"
	case StateRotating:
		return "rotating"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Executor 串行执行任务。Go 返回 false 表示执行器已停止。
type Executor interface {
	Go(fn func()) bool
}

// Listener 接收轮转器的通知，所有方法都在执行器上同步调用。
type Listener interface {
	// NewFile 在新的当前文件可写后调用。
	NewFile(h *Handle)
	// CloseFile 在当前文件即将关闭前调用，此后不得再使用该句柄。
	CloseFile(info FileInfo)
	// Error 上报非致命错误。
	Error(err error)
}

type nopListener struct{}

func (nopListener) NewFile(*Handle)    {}
func (nopListener) CloseFile(FileInfo) {}
func (nopListener) Error(error)        {}

// Rotator 管理当前文件和历史代。
type Rotator struct {
	path     string
	opts     options
	exec     Executor
	listener Listener

	state    atomic.Int32
	rotating atomic.Bool
	current  atomic.Pointer[Handle]
	version  uint64 // 仅在执行器上修改
}

// New 创建轮转器，不打开文件。listener 为 nil 时忽略所有通知。
func New(path string, exec Executor, listener Listener, opts ...Option) (*Rotator, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.fileMode&^os.FileMode(0o777) != 0 || o.fileMode == 0 {
		return nil, fmt.Errorf("%w: got %04o, only permission bits (0001~0777) allowed", ErrInvalidFileMode, o.fileMode)
	}
	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if listener == nil {
		listener = nopListener{}
	}
	return &Rotator{
		path:     safePath,
		opts:     o,
		exec:     exec,
		listener: listener,
	}, nil
}

// Path 返回当前文件路径。
func (r *Rotator) Path() string {
	return r.path
}

// State 返回当前状态。
func (r *Rotator) State() State {
	return State(r.state.Load())
}

// Current 返回当前文件句柄，没有打开的文件时返回 nil。
func (r *Rotator) Current() *Handle {
	return r.current.Load()
}

// Init 打开当前文件：UNINITIALISED → OPEN。
// startNew 为 true 且已有非空文件时，先把它作为一次轮转移走，保证当前文件从空开始。
// 失败时通过 Listener.Error 上报并保持 UNINITIALISED。cb 可以为 nil。
func (r *Rotator) Init(startNew bool, cb func(error)) {
	r.submit(cb, func() error {
		switch r.State() {
		case StateClosed:
			return ErrClosed
		case StateOpen:
			return ErrAlreadyOpen
		}

		reason := ReasonInit
		var errs []error
		if startNew {
			size, exists, err := xfile.Size(r.path)
			if err != nil {
				errs = append(errs, r.report(err))
			}
			if exists && size > 0 {
				reason = ReasonStartNew
				if err := r.maintain(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		errs = append(errs, r.openCurrent(reason))
		return errors.Join(errs...)
	})
}

// Rotate 执行一次轮转。已有轮转在进行中时立即以 [ErrRotating] 完成，不做任何事。
// UNINITIALISED 状态下的 Rotate 只重试打开文件。cb 可以为 nil。
func (r *Rotator) Rotate(t Trigger, cb func(error)) {
	if !r.rotating.CompareAndSwap(false, true) {
		callback(cb, ErrRotating)
		return
	}
	r.submit(func(err error) {
		r.rotating.Store(false)
		callback(cb, err)
	}, func() error {
		switch r.State() {
		case StateClosed:
			return ErrClosed
		case StateUninitialised:
			return r.openCurrent(t.Reason)
		}
		return r.rotate(t)
	})
}

// End 关闭当前文件且不再打开新文件，进入终态 CLOSED。cb 可以为 nil。
func (r *Rotator) End(cb func(error)) {
	r.submit(cb, func() error {
		if r.State() == StateClosed {
			return nil
		}
		r.state.Store(int32(StateClosed))
		return r.closeCurrent()
	})
}

// submit 把任务投递到执行器，完成后调用 cb。执行器已停止时以 ErrClosed 完成。
func (r *Rotator) submit(cb func(error), task func() error) {
	if !r.exec.Go(func() { callback(cb, task()) }) {
		callback(cb, ErrClosed)
	}
}

// rotate 在执行器上执行完整的轮转。
func (r *Rotator) rotate(t Trigger) error {
	r.state.Store(int32(StateRotating))

	var errs []error
	if err := r.closeCurrent(); err != nil {
		errs = append(errs, err)
	}
	// 外部移走的文件已不在原路径，只需重新打开
	if t.Reason != ReasonExternal {
		if err := r.maintain(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.openCurrent(t.Reason); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// closeCurrent 通知 CloseFile 并关闭当前句柄。
func (r *Rotator) closeCurrent() error {
	h := r.current.Swap(nil)
	if h == nil {
		return nil
	}
	r.listener.CloseFile(h.Info())
	if err := h.close(); err != nil {
		return r.report(fmt.Errorf("close %s: %w", r.path, err))
	}
	return nil
}

// maintain 整理历史代并把当前文件移为第 1 代。
// 当前文件未能移走时返回错误，后续 openCurrent 以追加模式打开原文件。
func (r *Rotator) maintain() error {
	var errs []error
	if err := shiftGenerations(r.path, r.opts.totalFiles); err != nil {
		errs = append(errs, r.report(fmt.Errorf("shift generations: %w", err)))
	}

	if _, exists, _ := xfile.Size(r.path); !exists {
		return errors.Join(errs...)
	}
	if !firstGenerationFree(r.path) {
		errs = append(errs, r.report(ErrGenerationExists))
		return errors.Join(errs...)
	}
	first := GenerationPath(r.path, 1, false)
	if err := os.Rename(r.path, first); err != nil {
		errs = append(errs, r.report(fmt.Errorf("rename current file: %w", err)))
		return errors.Join(errs...)
	}

	if r.opts.gzip {
		if err := compressFile(first, GenerationPath(r.path, 1, true), r.opts.fileMode); err != nil {
			errs = append(errs, r.report(fmt.Errorf("gzip %s: %w", first, err)))
		}
	}
	if err := pruneBySize(r.path, r.opts.totalSize); err != nil {
		errs = append(errs, r.report(fmt.Errorf("prune generations: %w", err)))
	}
	return errors.Join(errs...)
}

// openCurrent 打开（或以追加模式重新打开）当前文件并发布。
// 全部重试失败时回到 UNINITIALISED。
func (r *Rotator) openCurrent(reason string) error {
	var f *os.File
	err := retry.New(
		retry.Attempts(uint(r.opts.openAttempts)),
		retry.Delay(r.opts.openDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		if err := xfile.EnsureDir(r.path); err != nil {
			return err
		}
		//#nosec G302 -- 日志文件权限由调用方配置决定
		file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, r.opts.fileMode)
		if err != nil {
			return err
		}
		f = file
		return nil
	})
	if err != nil {
		r.state.Store(int32(StateUninitialised))
		return r.report(fmt.Errorf("open %s: %w", r.path, err))
	}

	var size int64
	if info, serr := f.Stat(); serr == nil {
		size = info.Size()
	}
	r.version++
	h := &Handle{
		file: f,
		info: FileInfo{
			Path:     r.path,
			Version:  r.version,
			OpenedAt: r.opts.now(),
			Reason:   reason,
		},
	}
	h.size.Store(size)

	r.current.Store(h)
	r.state.Store(int32(StateOpen))
	r.listener.NewFile(h)
	return nil
}

// report 通过 Listener 上报错误并原样返回。
func (r *Rotator) report(err error) error {
	if err != nil {
		r.listener.Error(err)
	}
	return err
}

// callback 调用完成回调，隔离 panic。
func callback(cb func(error), err error) {
	if cb == nil {
		return
	}
	defer func() { _ = recover() }()
	cb(err)
}
