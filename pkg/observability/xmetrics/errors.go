package xmetrics

import "errors"

// NewRecorder 与 Attach 返回的错误。
var (
	// ErrCreateInstrument 表示创建 OTel 仪表失败。
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")
	// ErrNilOption 表示传入了 nil 的 Option 函数。
	ErrNilOption = errors.New("xmetrics: nil option")
)
