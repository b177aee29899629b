package xproc

import (
	"os"
	"path/filepath"
	"sync"
)

// osExecutable 和 osHostname 是包级变量，测试中替换。
var (
	osExecutable = os.Executable
	osHostname   = os.Hostname
)

var (
	processNameOnce  sync.Once
	processNameValue string

	hostnameOnce  sync.Once
	hostnameValue string
)

// Identity 描述写入日志记录的进程身份。
type Identity struct {
	Name     string
	PID      int
	Hostname string
}

// Current 返回当前进程的身份。
func Current() Identity {
	return Identity{Name: ProcessName(), PID: ProcessID(), Hostname: Hostname()}
}

// Stamp 为缺失的 name/pid/hostname 字段填入进程身份，已有字段不覆盖。
func (id Identity) Stamp(fields map[string]any) {
	if _, ok := fields["name"]; !ok && id.Name != "" {
		fields["name"] = id.Name
	}
	if _, ok := fields["pid"]; !ok && id.PID > 0 {
		fields["pid"] = id.PID
	}
	if _, ok := fields["hostname"]; !ok && id.Hostname != "" {
		fields["hostname"] = id.Hostname
	}
}

// ProcessID 返回当前进程 ID。
func ProcessID() int {
	return os.Getpid()
}

// ProcessName 返回当前进程名称（不含路径），结果缓存。
// 优先使用 [os.Executable]，失败时回退到 os.Args[0]；都无效时返回空字符串。
func ProcessName() string {
	processNameOnce.Do(func() {
		processNameValue = resolveProcessName()
	})
	return processNameValue
}

// Hostname 返回主机名，结果缓存；获取失败时返回空字符串。
func Hostname() string {
	hostnameOnce.Do(func() {
		if h, err := osHostname(); err == nil {
			hostnameValue = h
		}
	})
	return hostnameValue
}

func resolveProcessName() string {
	if exe, err := osExecutable(); err == nil && exe != "" {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(os.Args) == 0 || os.Args[0] == "" {
		return ""
	}
	return baseName(os.Args[0])
}

// baseName 对 [filepath.Base] 返回的特殊值（"."、".."、分隔符）返回空字符串。
func baseName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
