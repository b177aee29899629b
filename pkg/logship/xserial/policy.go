package xserial

import "slices"

// Format 是序列化格式。
type Format int

// 支持的格式。零值为 FormatJSON。
const (
	FormatJSON Format = iota
	FormatOrderedJSON
	FormatUnsafeJSON
	FormatText
	FormatRaw
)

var formatNames = map[Format]string{
	FormatJSON:        "json",
	FormatOrderedJSON: "ordered-json",
	FormatUnsafeJSON:  "unsafe-json",
	FormatText:        "text",
	FormatRaw:         "raw",
}

// String 返回格式名称。
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat 解析格式名称，空字符串为 FormatJSON。
func ParseFormat(s string) (Format, bool) {
	if s == "" {
		return FormatJSON, true
	}
	for f, name := range formatNames {
		if name == s {
			return f, true
		}
	}
	return FormatJSON, false
}

// Config 是格式策略的配置。
type Config struct {
	// Format 显式指定格式，零值为 FormatJSON。
	Format Format

	// FieldOrder 非空时 JSON 格式升级为 FormatOrderedJSON。
	FieldOrder []string

	// NoCyclesCheck 为 true 时 JSON 格式降级为 FormatUnsafeJSON。
	NoCyclesCheck bool

	// Raw 等价于 Format = FormatRaw。
	Raw bool
}

// Policy 是解析后的格式策略，零值等价于 FormatJSON。
type Policy struct {
	format Format
	order  []string
}

// NewPolicy 解析配置。
//
// Raw 与 FieldOrder 同时设置时返回忽略字段顺序的 Raw 策略和 [ErrFieldOrderWithRaw]，
// 调用方应上报该错误并继续使用返回的策略。
func NewPolicy(cfg Config) (Policy, error) {
	if cfg.Raw || cfg.Format == FormatRaw {
		p := Policy{format: FormatRaw}
		if len(cfg.FieldOrder) > 0 {
			return p, ErrFieldOrderWithRaw
		}
		return p, nil
	}

	switch cfg.Format {
	case FormatText:
		return Policy{format: FormatText}, nil
	case FormatUnsafeJSON:
		return Policy{format: FormatUnsafeJSON}, nil
	}

	if len(cfg.FieldOrder) > 0 {
		return Policy{format: FormatOrderedJSON, order: slices.Clone(cfg.FieldOrder)}, nil
	}
	if cfg.NoCyclesCheck {
		return Policy{format: FormatUnsafeJSON}, nil
	}
	return Policy{format: FormatJSON}, nil
}

// Format 返回策略的格式。
func (p Policy) Format() Format {
	return p.format
}

// FieldOrder 返回有序 JSON 的字段顺序副本。
func (p Policy) FieldOrder() []string {
	return slices.Clone(p.order)
}
