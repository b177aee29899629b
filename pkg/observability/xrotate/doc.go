// Package xrotate 提供日志文件轮转。
//
// # Rotator
//
// [Rotator] 管理日志流唯一的当前文件及其历史代：
//
//	UNINITIALISED → OPEN → ROTATING → OPEN → … → CLOSED
//
// 所有状态转换都投递到同一个 [Executor] 上串行执行，轮转过程中不会与写入交错。
// 当前文件以 [Handle] 形式发布，版本号严格递增；旧句柄完全关闭后才通知新句柄。
//
// 一次轮转依次执行：通知 CloseFile → 关闭当前文件 → 历史代整体后移（超过 TotalFiles
// 的删除）→ path 重命名为 path.1 → 可选 gzip 压缩为 path.1.gz → 按 TotalSize 从最旧开始
// 清理 → 打开新文件（带重试）→ 通知 NewFile。
//
// 失败策略：所有文件系统错误通过 [Listener.Error] 上报，不会中止进程。当前文件无法移走时
// 以追加模式重新打开旧文件；完全无法打开文件时回到 UNINITIALISED，后续 Rotate 或 Init 会重试。
//
// # 文件命名
//
//	path        当前文件
//	path.1      最近一次轮转出的文件（启用 gzip 时为 path.1.gz）
//	path.N      第 N 代
//
// # Lumberjack
//
// [NewLumberjack] 返回按大小自动轮转的 [Writer]，基于 lumberjack v2，
// 用于进程自身的诊断日志，与 Rotator 管理的日志流互不相关。
package xrotate
