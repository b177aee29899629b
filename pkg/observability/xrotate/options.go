package xrotate

import (
	"os"
	"time"
)

// 默认参数。
const (
	DefaultFileMode     os.FileMode = 0o644
	DefaultOpenAttempts             = 3
	DefaultOpenDelay                = 100 * time.Millisecond
)

// Option 配置 [Rotator]。
type Option func(*options)

type options struct {
	totalFiles   int
	totalSize    int64
	gzip         bool
	fileMode     os.FileMode
	openAttempts int
	openDelay    time.Duration
	now          func() time.Time
}

func defaultOptions() options {
	return options{
		fileMode:     DefaultFileMode,
		openAttempts: DefaultOpenAttempts,
		openDelay:    DefaultOpenDelay,
		now:          time.Now,
	}
}

// WithTotalFiles 设置保留的历史代数量，0 表示不限制。
func WithTotalFiles(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.totalFiles = n
		}
	}
}

// WithTotalSize 设置历史代的总字节上限，超出时从最旧开始删除，0 表示不限制。
func WithTotalSize(bytes int64) Option {
	return func(o *options) {
		if bytes >= 0 {
			o.totalSize = bytes
		}
	}
}

// WithGzip 设置是否压缩轮转出的文件。
func WithGzip(on bool) Option {
	return func(o *options) {
		o.gzip = on
	}
}

// WithFileMode 设置新建文件的权限，默认 0644。
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// WithOpenRetry 设置打开文件的尝试次数和间隔。
func WithOpenRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.openAttempts = attempts
		}
		if delay >= 0 {
			o.openDelay = delay
		}
	}
}
