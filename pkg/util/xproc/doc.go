// Package xproc 提供当前进程的身份信息，用于给日志记录补全 name/pid/hostname 字段。
//
// 进程名和主机名在首次调用时解析并缓存，之后不再产生系统调用。
package xproc
