// Package logship 提供日志落盘流水线相关的子包。
//
// 子包列表：
//   - xserial: 日志记录序列化，JSON/有序 JSON/文本/原样透传等格式策略
//   - xqueue: 有界写队列，容量淘汰、暂停/恢复、批量排空与部分失败回滚
//   - xstream: 日志流编排，串联序列化、写队列与文件轮转，对外发布事件
//   - xtrigger: 轮转触发器，按大小、周期和文件被外部移走触发轮转
//
// 设计原则：
//   - 生产者永不阻塞，磁盘落后时只丢弃并告警，不无限增长内存
//   - 轮转与批量写入串行执行，任何批次不会跨越新旧两个文件
//   - 库包不打日志，只发布事件
package logship
