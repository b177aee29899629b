package xserial

import (
	"encoding/json"
	"math"
)

// Level 是记录的数值级别。
type Level int

// 已命名的级别。30 没有单独映射，按默认规则归为 INFO。
const (
	LevelTrace Level = 10
	LevelDebug Level = 20
	LevelInfo  Level = 30
	LevelWarn  Level = 40
	LevelError Level = 50
	LevelFatal Level = 60
)

// String 返回级别名称，未映射的数值一律为 "INFO"。
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "INFO"
	}
}

// LevelOf 从字段值解析级别，支持整数、浮点和 json.Number。
// 无法识别时返回 (LevelInfo, false)。
func LevelOf(v any) (Level, bool) {
	switch n := v.(type) {
	case int:
		return Level(n), true
	case int8:
		return Level(n), true
	case int16:
		return Level(n), true
	case int32:
		return Level(n), true
	case int64:
		return Level(n), true
	case uint:
		return Level(n), true
	case uint8:
		return Level(n), true
	case uint16:
		return Level(n), true
	case uint32:
		return Level(n), true
	case uint64:
		return Level(n), true
	case float32:
		return floatLevel(float64(n))
	case float64:
		return floatLevel(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return Level(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatLevel(f)
		}
	case Level:
		return n, true
	}
	return LevelInfo, false
}

func floatLevel(f float64) (Level, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return LevelInfo, false
	}
	return Level(f), true
}
