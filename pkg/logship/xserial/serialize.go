package xserial

import "fmt"

// Serialize 按策略序列化一条记录。
//
// 单条记录的失败（包括格式化过程中的 panic）以错误返回，不影响其他记录。
func Serialize(rec Record, p Policy) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", ErrMarshal, r)
		}
	}()

	switch r := rec.(type) {
	case Text:
		return []byte(r), nil
	case Fields:
		if r == nil {
			return nil, ErrNilRecord
		}
		return serializeFields(r, p)
	default:
		return nil, ErrNilRecord
	}
}

// Serialize 是 [Serialize] 的方法形式。
func (p Policy) Serialize(rec Record) ([]byte, error) {
	return Serialize(rec, p)
}

func serializeFields(f Fields, p Policy) ([]byte, error) {
	switch p.format {
	case FormatOrderedJSON:
		return orderedJSON(f, p.order)
	case FormatUnsafeJSON:
		return encodeLine(map[string]any(f))
	case FormatText:
		return textLine(f), nil
	default:
		// FormatJSON 以及 FormatRaw 下的结构化记录
		return encodeLine(sanitizeFields(f))
	}
}
