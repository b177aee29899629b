package xtrigger

import (
	"sync"
	"sync/atomic"

	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xrotate"
	"github.com/omeyang/xship/pkg/util/xfile"
)

// Size 在当前文件写入的字节数达到阈值时请求轮转。
//
// 计数来自 logwrite 事件；newfile 时以新文件的实际大小重新开始，
// 因此以追加方式打开的已有文件也计入阈值。
type Size struct {
	target    Target
	threshold int64
	opts      options

	written atomic.Int64
	pending atomic.Bool

	stopOnce sync.Once
	offs     []func()
}

// NewSize 创建大小触发器并立即订阅 target 的事件。
func NewSize(target Target, threshold int64, opts ...Option) (*Size, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}
	s := &Size{
		target:    target,
		threshold: threshold,
		opts:      applyOptions(opts),
	}
	s.offs = []func(){
		target.On(xstream.EventLogWrite, s.onWrite),
		target.On(xstream.EventNewFile, s.onNewFile),
	}
	return s, nil
}

// Threshold 返回阈值（字节）。
func (s *Size) Threshold() int64 {
	return s.threshold
}

// Written 返回当前文件已计入的字节数。
func (s *Size) Written() int64 {
	return s.written.Load()
}

// Stop 取消订阅。可重复调用。
func (s *Size) Stop() {
	s.stopOnce.Do(func() {
		for _, off := range s.offs {
			off()
		}
	})
}

func (s *Size) onWrite(e xstream.Event) {
	n := s.written.Add(int64(e.Bytes))
	if n < s.threshold || !s.pending.CompareAndSwap(false, true) {
		return
	}
	fire(s.target, xrotate.Trigger{Reason: xrotate.ReasonSize, Bytes: n}, s.opts.onError, func(err error) {
		if err != nil {
			// 没有新文件产生，允许下一次写入再次触发
			s.pending.Store(false)
		}
	})
}

func (s *Size) onNewFile(e xstream.Event) {
	size, _, err := xfile.Size(e.File.Path)
	if err != nil {
		size = 0
	}
	s.written.Store(size)
	s.pending.Store(false)
}
