package xtrigger

import "errors"

var (
	// ErrNilTarget 表示未提供轮转目标。
	ErrNilTarget = errors.New("xtrigger: nil target")

	// ErrInvalidThreshold 表示大小阈值不是正数。
	ErrInvalidThreshold = errors.New("xtrigger: threshold must be positive")

	// ErrInvalidPeriod 表示无法解析的周期表达式。
	ErrInvalidPeriod = errors.New("xtrigger: invalid period")
)
