package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xship/pkg/util/xsize"
)

// 诊断日志的标准字段名。
const (
	KeyError    = "error"
	KeyDuration = "duration"
	KeyCount    = "count"
	KeyStream   = "stream_id"
	KeyPath     = "path"
	KeyVersion  = "version"
	KeyReason   = "reason"
	KeyBytes    = "bytes"
	KeyQueueLen = "queue_len"
	KeyProcess  = "process"
)

// Err 创建错误属性。err 为 nil 时返回空属性，slog 会忽略它。
//
//	if err != nil {
//	    logger.Error(ctx, "rotate failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建人类可读的耗时属性（如 "1.5ms"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Count 创建计数属性。
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Path 创建文件路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Version 创建文件版本属性。
func Version(v uint64) slog.Attr {
	return slog.Uint64(KeyVersion, v)
}

// Reason 创建轮转原因属性。
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Bytes 创建字节数属性，输出人类可读的大小（如 "1.5MiB"）。
func Bytes(n int64) slog.Attr {
	return slog.String(KeyBytes, xsize.Format(n))
}

// QueueLen 创建队列长度属性。
func QueueLen(n int) slog.Attr {
	return slog.Int(KeyQueueLen, n)
}
