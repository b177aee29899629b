package xproc

import "sync"

// resetCache 重置缓存（仅用于测试）。
func resetCache() {
	processNameOnce = sync.Once{}
	processNameValue = ""
	hostnameOnce = sync.Once{}
	hostnameValue = ""
}
