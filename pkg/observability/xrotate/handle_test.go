package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHandle(t *testing.T) (*Handle, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	h := &Handle{file: f, info: FileInfo{Path: path, Version: 1}}
	t.Cleanup(func() { _ = h.close() })
	return h, path
}

func TestHandle_WriteBatch(t *testing.T) {
	h, path := openTestHandle(t)

	last, err := h.WriteBatch([][]byte{[]byte("a\n"), []byte("bb\n"), []byte("ccc\n")})
	require.NoError(t, err)
	assert.Equal(t, 2, last)
	assert.Equal(t, int64(9), h.Size())

	last, err = h.WriteBatch(nil)
	require.NoError(t, err)
	assert.Equal(t, -1, last)

	last, err = h.WriteBatch([][]byte{[]byte("d\n")})
	require.NoError(t, err)
	assert.Equal(t, 0, last)
	assert.Equal(t, int64(11), h.Size())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nbb\nccc\nd\n", string(b))
}

func TestHandle_WriteAfterClose(t *testing.T) {
	h, _ := openTestHandle(t)
	require.NoError(t, h.close())
	require.NoError(t, h.close(), "重复关闭返回 nil")

	last, err := h.WriteBatch([][]byte{[]byte("x")})
	assert.ErrorIs(t, err, ErrHandleClosed)
	assert.Equal(t, -1, last)
}

func TestHandle_WriteFailure(t *testing.T) {
	h, _ := openTestHandle(t)
	// 绕过 Handle 直接关闭底层文件，模拟 I/O 错误
	require.NoError(t, h.file.Close())

	last, err := h.WriteBatch([][]byte{[]byte("a"), []byte("b")})
	assert.Error(t, err)
	assert.Equal(t, -1, last, "一个都没写入")
}

func TestLastComplete(t *testing.T) {
	entries := [][]byte{[]byte("aaa"), []byte("bb"), []byte("cccc")}
	tests := []struct {
		n            int
		wantLast     int
		wantBoundary int
	}{
		{0, -1, 0},
		{2, -1, 0},
		{3, 0, 3},
		{4, 0, 3},
		{5, 1, 5},
		{8, 1, 5},
		{9, 2, 9},
	}
	for _, tt := range tests {
		last, boundary := lastComplete(entries, tt.n)
		assert.Equal(t, tt.wantLast, last, "n=%d", tt.n)
		assert.Equal(t, tt.wantBoundary, boundary, "n=%d", tt.n)
	}
}
