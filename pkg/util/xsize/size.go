package xsize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/go-units"
)

// ErrInvalidSize 表示容量字符串无法解析或为负数。
var ErrInvalidSize = errors.New("xsize: invalid size")

// Parse 将容量字符串解析为字节数。
//
//	Parse("10m")    // 10485760
//	Parse("512KiB") // 524288
//	Parse("")       // 0
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSize, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
	}
	return n, nil
}

// MustParse 同 [Parse]，解析失败时 panic。仅用于常量初始化。
func MustParse(s string) int64 {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Format 将字节数格式化为 1024 进制的可读字符串，如 "10MiB"。
func Format(n int64) string {
	return units.BytesSize(float64(n))
}
