// Package xmetrics 把日志流的 perf 事件记录为 OpenTelemetry 指标。
//
// # 使用示例
//
//	rec, _ := xmetrics.NewRecorder(xmetrics.WithMeterProvider(mp))
//	detach := rec.Attach(stream)
//	defer detach()
//
// # 指标命名
//
//   - xship.stream.records       写入的记录数
//   - xship.stream.bytes         写入的字节数
//   - xship.stream.batch.duration 每批写入耗时（秒）
//   - xship.stream.rotations     轮转次数，属性 reason、status
//   - xship.stream.rotation.duration 轮转耗时（秒）
//   - xship.stream.errors        error 事件次数
//   - xship.stream.overloads     losingdata 事件次数
//   - xship.stream.queue.length  最近一次观测到的队列长度
//
// 所有指标带 stream.id 属性；status 取值 ok / error。
package xmetrics
