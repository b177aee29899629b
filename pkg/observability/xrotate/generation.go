package xrotate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/omeyang/xship/pkg/util/xfile"
)

const (
	gzipSuffix = ".gz"
	tmpSuffix  = ".tmp"
)

// GenerationPath 返回第 n 代文件的路径。
func GenerationPath(path string, n int, gz bool) string {
	p := path + "." + strconv.Itoa(n)
	if gz {
		p += gzipSuffix
	}
	return p
}

// generation 是同一代的所有文件（崩溃可能留下压缩前后两个文件）。
type generation struct {
	n     int
	files []string
}

// scanGenerations 列出 path 的历史代，按代号升序。
func scanGenerations(path string) ([]generation, error) {
	dir, base := filepath.Dir(path), filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byGen := make(map[int][]string)
	prefix := base + "."
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if n, ok := parseGeneration(name[len(prefix):]); ok {
			byGen[n] = append(byGen[n], filepath.Join(dir, name))
		}
	}

	gens := make([]generation, 0, len(byGen))
	for n, files := range byGen {
		slices.Sort(files)
		gens = append(gens, generation{n: n, files: files})
	}
	slices.SortFunc(gens, func(a, b generation) int { return a.n - b.n })
	return gens, nil
}

// parseGeneration 解析 "N" 或 "N.gz"，N 为不带前导零的正整数。
func parseGeneration(s string) (int, bool) {
	s = strings.TrimSuffix(s, gzipSuffix)
	if s == "" || s[0] == '0' {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// shiftGenerations 把每一代后移一位，超出 totalFiles 的删除。从最旧开始处理，避免覆盖。
func shiftGenerations(path string, totalFiles int) error {
	gens, err := scanGenerations(path)
	if err != nil {
		return err
	}
	var errs []error
	for i := len(gens) - 1; i >= 0; i-- {
		g := gens[i]
		for _, f := range g.files {
			if totalFiles > 0 && g.n+1 > totalFiles {
				errs = append(errs, xfile.RemoveIfExists(f))
				continue
			}
			gz := strings.HasSuffix(f, gzipSuffix)
			errs = append(errs, os.Rename(f, GenerationPath(path, g.n+1, gz)))
		}
	}
	return errors.Join(errs...)
}

// firstGenerationFree 报告第 1 代是否已空出。
func firstGenerationFree(path string) bool {
	for _, p := range []string{GenerationPath(path, 1, false), GenerationPath(path, 1, true)} {
		if _, err := os.Lstat(p); !errors.Is(err, fs.ErrNotExist) {
			return false
		}
	}
	return true
}

// compressFile 把 src 压缩为 dst：先写临时文件再重命名，成功后删除 src。
func compressFile(src, dst string, mode os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + tmpSuffix
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = xfile.RemoveIfExists(tmp)
		}
	}()

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err = io.Copy(zw, in); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err = zw.Close(); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// pruneBySize 从最旧的一代开始删除，直到历史代总大小不超过 totalSize。
func pruneBySize(path string, totalSize int64) error {
	if totalSize <= 0 {
		return nil
	}
	gens, err := scanGenerations(path)
	if err != nil {
		return err
	}

	var total int64
	sizes := make(map[string]int64)
	for _, g := range gens {
		for _, f := range g.files {
			size, _, serr := xfile.Size(f)
			if serr != nil {
				continue
			}
			sizes[f] = size
			total += size
		}
	}

	var errs []error
	for i := len(gens) - 1; i >= 0 && total > totalSize; i-- {
		for _, f := range gens[i].files {
			if rerr := xfile.RemoveIfExists(f); rerr != nil {
				errs = append(errs, rerr)
				continue
			}
			total -= sizes[f]
		}
	}
	return errors.Join(errs...)
}
