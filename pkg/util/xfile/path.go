package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizePath 对日志文件路径进行安全检查和规范化。
//
//   - 拒绝空路径、含空字节的路径、以分隔符结尾的目录路径
//   - 相对路径中出现 ".." 路径段视为穿越，拒绝
//   - 绝对路径中的 ".." 交给 filepath.Clean 正常解析
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsRune(filename, 0) {
		return "", ErrNullByte
	}
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, `\`) {
		return "", fmt.Errorf("%w: %q is a directory path", ErrInvalidPath, filename)
	}
	if !filepath.IsAbs(filename) && hasDotDotSegment(filename) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, filename)
	}

	cleaned := filepath.Clean(filename)
	if cleaned == "." || cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, filename)
	}
	return cleaned, nil
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 都视为分隔符。
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
