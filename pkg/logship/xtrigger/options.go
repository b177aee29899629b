package xtrigger

import (
	"time"

	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// DefaultDebounce 是 [MoveWatcher] 的默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// Target 是触发器作用的对象，*xstream.Stream 实现了此接口。
type Target interface {
	Rotate(t xrotate.Trigger, done func(error))
	On(kind xstream.EventKind, fn xstream.Handler) func()
}

var _ Target = (*xstream.Stream)(nil)

// Option 配置触发器。
type Option func(*options)

type options struct {
	onError  func(error)
	location *time.Location
	debounce time.Duration
}

func defaultOptions() options {
	return options{
		location: time.Local,
		debounce: DefaultDebounce,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithOnError 设置轮转失败和监视错误的回调。
// 轮转进行中被忽略的请求（xstream.ErrRotating）不会上报。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithLocation 设置 [Period] 计算计划使用的时区，默认 time.Local。
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithDebounce 设置 [MoveWatcher] 的防抖时间。
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}
