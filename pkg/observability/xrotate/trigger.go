package xrotate

import "time"

// 轮转原因。
const (
	ReasonInit     = "init"
	ReasonStartNew = "startnew"
	ReasonSize     = "size"
	ReasonPeriod   = "period"
	ReasonManual   = "manual"
	// ReasonExternal 表示文件已被外部移走，轮转只重新打开，不整理历史代。
	ReasonExternal = "external"
)

// Trigger 描述一次轮转请求的原因，只被轮转器使用。
type Trigger struct {
	Reason string
	At     time.Time
	// Bytes 是触发时当前文件的大小，0 表示未知。
	Bytes int64
}

// FileInfo 描述一个当前文件。
type FileInfo struct {
	Path     string
	Version  uint64
	OpenedAt time.Time
	// Reason 是打开该文件的原因，取值同 Trigger.Reason。
	Reason string
}
