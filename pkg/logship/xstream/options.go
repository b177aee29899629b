package xstream

import (
	"os"
	"slices"

	"github.com/omeyang/xship/pkg/logship/xqueue"
	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/observability/xrotate"
)

// Option 配置 [Stream]。
type Option func(*options)

type options struct {
	totalFiles    int
	totalSize     string
	gzip          bool
	fieldOrder    []string
	noCyclesCheck bool
	raw           bool
	format        xserial.Format
	mapFn         xserial.MapFunc
	shared        bool
	startNewFile  bool
	fileMode      os.FileMode
	queueOpts     []xqueue.Option
	newRotator    rotatorFactory
}

func defaultOptions() options {
	return options{
		fileMode:   xrotate.DefaultFileMode,
		newRotator: newFileRotator,
	}
}

// WithTotalFiles 设置保留的历史代数量，0 表示不限制。
func WithTotalFiles(n int) Option {
	return func(o *options) { o.totalFiles = n }
}

// WithTotalSize 设置历史代总大小上限，如 "10m"，空字符串表示不限制。
func WithTotalSize(size string) Option {
	return func(o *options) { o.totalSize = size }
}

// WithGzip 设置是否压缩轮转出的文件。
func WithGzip(on bool) Option {
	return func(o *options) { o.gzip = on }
}

// WithFieldOrder 设置有序 JSON 的字段顺序，与 WithRaw 互斥。
func WithFieldOrder(fields ...string) Option {
	return func(o *options) { o.fieldOrder = slices.Clone(fields) }
}

// WithNoCyclesCheck 关闭循环引用检测。
func WithNoCyclesCheck(on bool) Option {
	return func(o *options) { o.noCyclesCheck = on }
}

// WithRaw 设置原样透传模式。
func WithRaw(on bool) Option {
	return func(o *options) { o.raw = on }
}

// WithFormat 显式指定输出格式。
func WithFormat(f xserial.Format) Option {
	return func(o *options) { o.format = f }
}

// WithMap 设置序列化前的记录变换，返回空记录表示丢弃。
func WithMap(fn xserial.MapFunc) Option {
	return func(o *options) { o.mapFn = fn }
}

// WithShared 设置调用方协调用的透传标志，流本身不解释。
func WithShared(on bool) Option {
	return func(o *options) { o.shared = on }
}

// WithStartNewFile 设置初始化时是否强制从空文件开始。
func WithStartNewFile(on bool) Option {
	return func(o *options) { o.startNewFile = on }
}

// WithFileMode 设置新建文件的权限，默认 0644。
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) { o.fileMode = mode }
}

// WithCapacity 设置队列容量，0 表示不限制。
func WithCapacity(n int) Option {
	return func(o *options) { o.queueOpts = append(o.queueOpts, xqueue.WithCapacity(n)) }
}

// WithBatchSize 设置单批最大记录数。
func WithBatchSize(n int) Option {
	return func(o *options) { o.queueOpts = append(o.queueOpts, xqueue.WithBatchSize(n)) }
}

// WithEviction 设置过载淘汰策略。
func WithEviction(e xqueue.Eviction) Option {
	return func(o *options) { o.queueOpts = append(o.queueOpts, xqueue.WithEviction(e)) }
}

// WithQueueOptions 透传其他队列选项。
func WithQueueOptions(opts ...xqueue.Option) Option {
	return func(o *options) { o.queueOpts = append(o.queueOpts, opts...) }
}

// withRotatorFactory 替换轮转器构造，仅用于测试。
func withRotatorFactory(f rotatorFactory) Option {
	return func(o *options) { o.newRotator = f }
}
