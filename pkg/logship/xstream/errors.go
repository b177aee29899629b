package xstream

import (
	"errors"

	"github.com/omeyang/xship/pkg/observability/xrotate"
)

var (
	// ErrClosed 表示流已结束或已销毁。
	ErrClosed = errors.New("xstream: stream is closed")

	// ErrDestroyed 是销毁时丢弃的记录收到的错误。
	ErrDestroyed = errors.New("xstream: stream destroyed")

	// ErrNoFile 表示当前没有可写的文件，批次整批回滚等待重试。
	ErrNoFile = errors.New("xstream: no current file")

	// ErrRotating 表示上一次轮转尚未完成。
	ErrRotating = xrotate.ErrRotating
)
