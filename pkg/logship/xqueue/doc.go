// Package xqueue 提供日志落盘用的有界写队列。
//
// 队列把生产者和磁盘写入解耦：
//   - [Queue.Push] 是 O(1) 的非阻塞入队，可在任意 goroutine 调用
//   - 排空在 [Scheduler] 上以批为单位进行，每批之后把下一批重新投递给调度器，
//     从不在同一调用栈中递归排空
//   - 写入器通过返回值报告批内最后一个成功写入的下标，其后的条目按原顺序放回队首，
//     下次排空优先重试
//
// # 容量与淘汰
//
// 超过容量时按 [Eviction] 淘汰最旧或最新的条目，被淘汰条目以 [ErrEvicted] 完成。
// losingdata 在进入过载时触发一次，caughtup 在过载后首次排空到 0 时触发一次，均为边沿触发。
// 回滚放回队首的条目不参与淘汰。
//
// # 暂停
//
// 新建的队列处于暂停状态。暂停时仍接受入队（受容量约束），只是不排空。
// [Queue.Pause] 和 [Queue.Resume] 都是幂等的。
package xqueue
