package xserial

import "errors"

var (
	// ErrFieldOrderWithRaw 表示同时配置了原样透传和字段顺序。
	// [NewPolicy] 返回此错误时仍返回可用的策略（忽略字段顺序）。
	ErrFieldOrderWithRaw = errors.New("xserial: field order cannot be used with raw mode")

	// ErrNilRecord 表示记录为 nil。
	ErrNilRecord = errors.New("xserial: nil record")

	// ErrMarshal 表示记录无法序列化（如 unsafe 模式下的循环引用）。
	ErrMarshal = errors.New("xserial: marshal record")
)
