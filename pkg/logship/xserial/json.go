package xserial

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Circular 替换循环引用的值。
const Circular = "[Circular]"

// encodeLine 编码 v 并以 "\n" 结尾，不转义 HTML 字符。
func encodeLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return buf.Bytes(), nil
}

// encodeValue 编码 v，不带结尾换行。
func encodeValue(v any) ([]byte, error) {
	b, err := encodeLine(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(b, []byte("\n")), nil
}

// orderedJSON 先输出 order 中存在的字段，再按字典序输出其余字段。
func orderedJSON(f Fields, order []string) ([]byte, error) {
	clean := sanitizeFields(f)

	keys := make([]string, 0, len(clean))
	listed := make(map[string]struct{}, len(order))
	for _, k := range order {
		if _, dup := listed[k]; dup {
			continue
		}
		listed[k] = struct{}{}
		if _, ok := clean[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(clean))
	for k := range clean {
		if _, ok := listed[k]; !ok {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	keys = append(keys, rest...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		vb, err := encodeValue(clean[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// sanitizeFields 返回 f 的无环副本。
func sanitizeFields(f Fields) map[string]any {
	s := sanitizer{ancestors: make(map[uintptr]struct{})}
	v := reflect.ValueOf(map[string]any(f))
	s.ancestors[v.Pointer()] = struct{}{}
	out := make(map[string]any, len(f))
	for k, val := range f {
		out[k] = s.walk(reflect.ValueOf(val))
	}
	return out
}

// sanitizer 以祖先集合检测循环：只有当前路径上的引用才算循环，
// 同一对象在兄弟位置重复出现不算。
type sanitizer struct {
	ancestors map[uintptr]struct{}
}

var (
	timeType   = reflect.TypeFor[time.Time]()
	errorType  = reflect.TypeFor[error]()
	marshaler  = reflect.TypeFor[json.Marshaler]()
	textMarsh  = reflect.TypeFor[encoding.TextMarshaler]()
	bytesType  = reflect.TypeFor[[]byte]()
	numberType = reflect.TypeFor[json.Number]()
)

func (s *sanitizer) walk(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		return s.walk(v.Elem())
	}

	t := v.Type()
	switch {
	case t == timeType, t == numberType, t == bytesType:
		return v.Interface()
	case t.Implements(marshaler), t.Implements(textMarsh):
		if isNilRef(v) {
			return nil
		}
		return v.Interface()
	case t.Implements(errorType):
		if isNilRef(v) {
			return nil
		}
		return v.Interface().(error).Error()
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return s.enter(v.Pointer(), func() any { return s.walk(v.Elem()) })
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		return s.enter(v.Pointer(), func() any {
			out := make(map[string]any, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				out[fmt.Sprint(iter.Key().Interface())] = s.walk(iter.Value())
			}
			return out
		})
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Len() == 0 {
			return []any{}
		}
		return s.enter(v.Pointer(), func() any { return s.list(v) })
	case reflect.Array:
		return s.list(v)
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		s.object(v, out)
		return out
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return v.Interface()
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil
	default:
		return v.Interface()
	}
}

func (s *sanitizer) enter(ptr uintptr, fn func() any) any {
	if _, ok := s.ancestors[ptr]; ok {
		return Circular
	}
	s.ancestors[ptr] = struct{}{}
	defer delete(s.ancestors, ptr)
	return fn()
}

// object 按 json 标签把结构体的导出字段展开进 out：
// "-" 跳过，omitempty 跳过零值，无名标签的嵌入结构体提升到上层。
func (s *sanitizer) object(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		if f.Anonymous && name == "" {
			if inner, ok := s.embedded(fv); ok {
				for k, val := range inner {
					if _, taken := out[k]; !taken {
						out[k] = val
					}
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasOpt(opts, "omitempty") && isEmpty(fv) {
			continue
		}
		out[name] = s.walk(fv)
	}
}

// embedded 展开无名标签的嵌入结构体；外层同名字段优先。
func (s *sanitizer) embedded(fv reflect.Value) (map[string]any, bool) {
	if fv.Kind() == reflect.Pointer {
		if fv.Type().Elem().Kind() != reflect.Struct {
			return nil, false
		}
		inner := map[string]any{}
		if !fv.IsNil() {
			s.enter(fv.Pointer(), func() any { s.object(fv.Elem(), inner); return nil })
		}
		return inner, true
	}
	if fv.Kind() != reflect.Struct {
		return nil, false
	}
	inner := map[string]any{}
	s.object(fv, inner)
	return inner, true
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

// isEmpty 与 encoding/json 的 omitempty 判定一致。
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

func (s *sanitizer) list(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = s.walk(v.Index(i))
	}
	return out
}

func isNilRef(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
