package xqueue

import "errors"

var (
	// ErrEvicted 表示条目因队列过载被淘汰。
	ErrEvicted = errors.New("xqueue: entry evicted")

	// ErrShortWrite 表示写入器未报告错误但没有写完整批。
	ErrShortWrite = errors.New("xqueue: short batch write")

	// ErrWriterPanic 表示写入器发生 panic，整批视为未写入。
	ErrWriterPanic = errors.New("xqueue: batch writer panic")

	// ErrClosed 是 [Queue.Close] 未指定原因时使用的默认错误。
	ErrClosed = errors.New("xqueue: queue is closed")
)
