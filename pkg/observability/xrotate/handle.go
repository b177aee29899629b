package xrotate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// maxPooledBuffer 超过此大小的缓冲区不放回池中。
const maxPooledBuffer = 1 << 20

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Handle 是一个打开的当前文件。由 [Rotator] 创建和关闭，调用方只持有临时引用。
// 写入方法应在轮转器的执行器上调用。
type Handle struct {
	file   *os.File
	info   FileInfo
	size   atomic.Int64
	closed atomic.Bool
}

// Info 返回文件描述。
func (h *Handle) Info() FileInfo {
	return h.info
}

// Size 返回当前文件大小（打开时的大小加上成功写入的字节数）。
func (h *Handle) Size() int64 {
	return h.size.Load()
}

// Closed 报告句柄是否已关闭。
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// WriteBatch 用一次系统调用写入一批条目，返回最后一个完整写入的下标（-1 表示没有）。
//
// 短写时把文件截断回最后一个完整条目的边界，未完整写入的条目可以原样重试而不会重复。
func (h *Handle) WriteBatch(entries [][]byte) (last int, err error) {
	if h.closed.Load() {
		return -1, ErrHandleClosed
	}
	if len(entries) == 0 {
		return -1, nil
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= maxPooledBuffer {
			bufPool.Put(buf)
		}
	}()
	for _, e := range entries {
		buf.Write(e)
	}

	start := h.size.Load()
	n, werr := h.file.Write(buf.Bytes())
	if werr == nil && n == buf.Len() {
		h.size.Add(int64(n))
		return len(entries) - 1, nil
	}
	if werr == nil {
		werr = fmt.Errorf("short write: %d of %d bytes", n, buf.Len())
	}

	last, boundary := lastComplete(entries, n)
	if n > boundary {
		if terr := h.file.Truncate(start + int64(boundary)); terr != nil {
			werr = errors.Join(werr, fmt.Errorf("truncate partial entry: %w", terr))
		}
	}
	h.size.Store(start + int64(boundary))
	return last, werr
}

// lastComplete 返回前 n 字节中最后一个完整条目的下标及其结束偏移。
func lastComplete(entries [][]byte, n int) (last, boundary int) {
	last = -1
	for i, e := range entries {
		if boundary+len(e) > n {
			break
		}
		boundary += len(e)
		last = i
	}
	return last, boundary
}

// close 同步并关闭文件。重复调用返回 nil。
func (h *Handle) close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return errors.Join(h.file.Sync(), h.file.Close())
}
