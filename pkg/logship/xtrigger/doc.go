// Package xtrigger 提供日志流的轮转触发器。
//
// 触发器只负责决定何时轮转，通过 [Target] 调用 Rotate，并从流的事件中获取所需状态：
//
//   - [Size]：累计 logwrite 字节数，达到阈值时以 size 原因轮转，newfile 时清零
//   - [Period]：按 cron 计划以 period 原因轮转
//   - [MoveWatcher]：当前文件被外部工具移走或删除时以 external 原因重新打开
//
// 轮转进行中再次触发会得到 xstream.ErrRotating，触发器不会重试，
// 因为正在进行的轮转已经满足了请求。
//
// 用法：
//
//	s, _ := xstream.New("/var/log/app.log")
//	size, _ := xtrigger.NewSize(s, 100<<20)
//	defer size.Stop()
//	period, _ := xtrigger.NewPeriod(s, "daily")
//	period.Start()
//	defer period.Stop()
//	s.Init()
package xtrigger
