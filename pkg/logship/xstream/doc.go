// Package xstream 把日志记录写入按需轮转的文件。
//
// [Stream] 串联三个部件：
//
//	Write(rec) → xserial 序列化 → xqueue 入队 →（异步）批量写入当前文件
//	Rotate(t)  → xrotate 轮转：暂停队列 → 关闭旧文件 → 整理历史代 → 打开新文件 → 恢复队列
//
// 排空批次和轮转步骤都在同一个 [xpool.Serial] 执行器上串行运行，因此任何批次都只
// 绑定一个文件句柄，不会跨越 closefile → newfile。Write 从不阻塞，磁盘落后时队列按容量
// 淘汰并发布 losingdata，排空后发布 caughtup。
//
// # 事件
//
// 通过 [Stream.On] 订阅 [EventKind]。处理函数在触发事件的 goroutine 上同步执行，
// panic 被隔离。没有订阅者的事件不构造。
//
// # 生命周期
//
//   - [Stream.Init]: 打开当前文件
//   - [Stream.End]: 写完队列中的数据后关闭
//   - [Stream.Destroy]: 丢弃队列中的数据立即关闭
//   - [Stream.DestroySoon]: 同 Destroy，但排在已调度的工作之后
//   - [Stream.Close]: End 的阻塞版本，ctx 到期时退化为 Destroy
//
// 关闭后执行器退出，随后发布 shutdown 事件。
package xstream
