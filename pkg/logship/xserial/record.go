package xserial

// Record 是一条日志记录，只能是 [Text] 或 [Fields]。
type Record interface {
	isRecord()
}

// Text 是调用方已格式化好的记录，原样写入。
type Text string

// Fields 是结构化记录。交给流水线后调用方不应再修改。
type Fields map[string]any

func (Text) isRecord()   {}
func (Fields) isRecord() {}

// MapFunc 在序列化前变换结构化记录。返回 nil 或空 Fields 表示丢弃该记录。
type MapFunc func(Fields) Fields

// Apply 对记录执行变换。Text 记录不经过变换。
// 返回 false 表示记录被丢弃。
func (fn MapFunc) Apply(rec Record) (out Record, keep bool) {
	f, ok := rec.(Fields)
	if fn == nil || !ok {
		return rec, rec != nil
	}
	mapped := fn(f)
	if len(mapped) == 0 {
		return nil, false
	}
	return mapped, true
}

// internalKeys 是文本格式中固定位置输出、不作为附加字段的键。
var internalKeys = map[string]struct{}{
	"name":     {},
	"hostname": {},
	"pid":      {},
	"level":    {},
	"msg":      {},
	"time":     {},
	"v":        {},
	"version":  {},
}

// IsInternal 报告 key 是否为保留字段。
func IsInternal(key string) bool {
	_, ok := internalKeys[key]
	return ok
}
