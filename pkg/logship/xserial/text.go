package xserial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// TimeLayout 是文本格式中 time.Time 的输出布局（UTC，毫秒精度）。
const TimeLayout = "2006-01-02T15:04:05.000Z"

// textLine 生成一行文本。该函数不返回错误：单个字段失败时省略该字段。
func textLine(f Fields) []byte {
	var buf bytes.Buffer

	buf.WriteByte('[')
	buf.WriteString(timeText(f["time"]))
	buf.WriteString("] ")

	buf.WriteString(plainText(f["name"]))
	buf.WriteByte('.')
	rawLevel, hasLevel := f["level"]
	lvl, _ := LevelOf(rawLevel)
	buf.WriteString(lvl.String())

	buf.WriteString(" L=")
	if hasLevel {
		buf.WriteString(plainText(rawLevel))
	} else {
		buf.WriteString(strconv.Itoa(int(LevelInfo)))
	}

	buf.WriteString(" E=")
	if msg, ok := quoted(f["msg"]); ok && f["msg"] != nil {
		buf.WriteString(msg)
	} else {
		buf.WriteString(`""`)
	}

	buf.WriteString(" pid=")
	buf.WriteString(plainText(f["pid"]))

	keys := make([]string, 0, len(f))
	for k := range f {
		if !IsInternal(k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		v, ok := quoted(f[k])
		if !ok {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(v)
	}

	buf.WriteByte('\n')
	return buf.Bytes()
}

// timeText 渲染时间字段：time.Time 转为 UTC 毫秒格式，其余原样。
func timeText(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(TimeLayout)
	}
	return plainText(v)
}

// plainText 渲染不加引号的值，nil 为空字符串。
func plainText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// quoted 将值转为带引号的 ASCII 文本。非字符串值先序列化为 JSON；失败或 panic 返回 false。
func quoted(v any) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = "", false
		}
	}()

	if s, isStr := v.(string); isStr {
		return strconv.QuoteToASCII(s), true
	}
	s := sanitizer{ancestors: make(map[uintptr]struct{})}
	b, err := encodeValue(s.walk(reflect.ValueOf(v)))
	if err != nil {
		return "", false
	}
	return strconv.QuoteToASCII(string(b)), true
}
