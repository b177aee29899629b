package xrotate

import "errors"

var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrRotating 已有轮转在进行中，本次请求被忽略
	ErrRotating = errors.New("xrotate: rotation already in progress")

	// ErrAlreadyOpen 重复初始化
	ErrAlreadyOpen = errors.New("xrotate: rotator already initialised")

	// ErrGenerationExists 第 1 代文件未能移走，为避免覆盖保留当前文件
	ErrGenerationExists = errors.New("xrotate: generation 1 still exists")

	// ErrHandleClosed 句柄已关闭
	ErrHandleClosed = errors.New("xrotate: file handle is closed")
)

// Lumberjack 配置校验错误
var (
	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")
)
