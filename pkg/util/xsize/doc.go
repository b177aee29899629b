// Package xsize 解析人类可读的容量字符串（如 "10m"、"512KiB"、"1.5G"）。
//
// 单位按 1024 进制解释，大小写不敏感，基于 github.com/docker/go-units。
// 空字符串和 "0" 表示不限制。
package xsize
