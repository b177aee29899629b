package xqueue

import (
	"fmt"
	"time"
)

// 默认参数。
const (
	DefaultCapacity      = 10000
	DefaultBatchSize     = 256
	DefaultBatchBytes    = 128 << 10
	DefaultRetryDelay    = 50 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
)

// Eviction 是过载时的淘汰策略。
type Eviction int

const (
	// EvictOldest 淘汰最旧的条目，保留最新数据。默认策略。
	EvictOldest Eviction = iota
	// EvictNewest 拒绝新入队的条目，保留已排队的数据。
	EvictNewest
)

// String 返回策略名称。
func (e Eviction) String() string {
	switch e {
	case EvictOldest:
		return "oldest"
	case EvictNewest:
		return "newest"
	default:
		return fmt.Sprintf("Eviction(%d)", int(e))
	}
}

// ParseEviction 解析策略名称，空字符串为 EvictOldest。
func ParseEviction(s string) (Eviction, error) {
	switch s {
	case "", "oldest":
		return EvictOldest, nil
	case "newest":
		return EvictNewest, nil
	default:
		return EvictOldest, fmt.Errorf("xqueue: unknown eviction policy %q", s)
	}
}

// Option 配置 [Queue]。
type Option func(*options)

type options struct {
	capacity      int
	eviction      Eviction
	batchSize     int
	batchBytes    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	onLosingData  func(queueLen int)
	onCaughtUp    func()
	onError       func(err error)
}

func defaultOptions() options {
	return options{
		capacity:      DefaultCapacity,
		eviction:      EvictOldest,
		batchSize:     DefaultBatchSize,
		batchBytes:    DefaultBatchBytes,
		retryDelay:    DefaultRetryDelay,
		maxRetryDelay: DefaultMaxRetryDelay,
	}
}

// WithCapacity 设置容量，0 表示不限制，负数忽略。
func WithCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.capacity = n
		}
	}
}

// WithEviction 设置过载淘汰策略。
func WithEviction(e Eviction) Option {
	return func(o *options) {
		o.eviction = e
	}
}

// WithBatchSize 设置单批最大条目数，非正数忽略。
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchBytes 设置单批最大字节数，非正数忽略。单批至少包含一个条目。
func WithBatchBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchBytes = n
		}
	}
}

// WithRetryDelay 设置批次失败后的重试退避：从 base 开始翻倍，不超过 maxDelay。
// base 为 0 时失败后立即重试。
func WithRetryDelay(base, maxDelay time.Duration) Option {
	return func(o *options) {
		if base >= 0 {
			o.retryDelay = base
		}
		if maxDelay >= base {
			o.maxRetryDelay = maxDelay
		}
	}
}

// WithOnLosingData 设置进入过载时的回调，参数为当前队列长度。
func WithOnLosingData(fn func(queueLen int)) Option {
	return func(o *options) {
		o.onLosingData = fn
	}
}

// WithOnCaughtUp 设置过载后排空到 0 时的回调。
func WithOnCaughtUp(fn func()) Option {
	return func(o *options) {
		o.onCaughtUp = fn
	}
}

// WithOnError 设置批次失败时的回调。
func WithOnError(fn func(err error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}
