// Package xfile 提供日志文件落盘所需的文件系统小工具。
//
//   - [SanitizePath]: 规范化日志路径，拒绝空路径、目录路径、空字节和相对路径穿越
//   - [EnsureDir] / [EnsureDirWithPerm]: 确保文件的父目录存在
//   - [Size]: 读取文件大小，文件不存在不视为错误
//   - [RemoveIfExists]: 删除文件，文件不存在不视为错误
//
// 本包只做格式校验，不防护符号链接和 TOCTOU，适用于可信配置给出的路径。
package xfile
