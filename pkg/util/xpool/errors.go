package xpool

import "errors"

// ErrStopped 表示执行器已停止，无法再投递任务。
var ErrStopped = errors.New("xpool: executor is stopped")
