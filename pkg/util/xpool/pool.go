package xpool

import (
	"runtime/debug"
	"sync"
	"time"
)

// Serial 单 goroutine 串行执行器。
type Serial struct {
	opts options

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
	done    chan struct{}
}

// NewSerial 创建并启动串行执行器。
func NewSerial(opts ...Option) *Serial {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Serial{
		opts: o,
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Go 投递任务，在执行器 goroutine 上异步运行。
// 执行器已停止时返回 false，任务被丢弃。
func (s *Serial) Go(fn func()) bool {
	if fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.tasks = append(s.tasks, fn)
	s.cond.Signal()
	return true
}

// After 在 d 之后把 fn 投递到执行器。返回的 Timer 可用于取消。
func (s *Serial) After(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { s.Go(fn) })
}

// Stop 停止接收新任务。已排队的任务会继续执行完。
// 幂等，可在任务内部调用。
func (s *Serial) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// Wait 等待执行器退出（需先 Stop）。不可在任务内部调用。
func (s *Serial) Wait() {
	<-s.done
}

// Done 返回执行器退出后关闭的 channel。
func (s *Serial) Done() <-chan struct{} {
	return s.done
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.tasks[0]
		s.tasks[0] = nil
		s.tasks = s.tasks[1:]
		if len(s.tasks) == 0 {
			// 释放底层数组，避免长时间运行后切片只增不减
			s.tasks = nil
		}
		s.mu.Unlock()

		s.run(fn)
	}
}

// run 执行单个任务，隔离 panic。
func (s *Serial) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.logger.Error("xpool: task panic recovered",
				"name", s.opts.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
