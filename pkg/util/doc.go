// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，目录创建、路径处理、文件大小查询
//   - xpool: 串行执行器，单 goroutine 顺序执行任务
//   - xproc: 进程身份，进程名、PID 和主机名
//   - xsize: 容量字符串解析与格式化（"10m"、"512KiB"）
//
// 设计原则：
//   - 安全处理路径遍历和符号链接
//   - 跨平台兼容
package util
