// Package xpool 提供串行任务执行器。
//
// [Serial] 是单 goroutine 的 FIFO 执行器，承担"下一个调度时机"语义：
// 通过 [Serial.Go] 投递的函数不会在调用方栈上同步执行，而是排队后
// 按投递顺序逐个运行，每个任务运行结束后才开始下一个。
//
// 写入流水线把它当作唯一的逻辑执行者：队列的排空 tick、轮转器的各个步骤
// 都投递到同一个 Serial 上，因此它们之间天然不会交错。
//
// # 注意事项
//
//   - Go 永不阻塞，任务队列无上限；调用方自己保证投递频率有界
//     （如队列每次只挂一个排空 tick）
//   - 任务 panic 会被恢复并记录日志，不影响后续任务
//   - Stop 可以在任务内部调用；Wait 不可以（会死锁）
//   - Stop 之后已排队的任务仍会执行完，新投递返回 false
package xpool
