// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xmetrics: 基于 OpenTelemetry 的流指标记录
//   - xrotate: 日志文件轮转，历史代管理与 lumberjack 写入器
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 从 context 中提取流标识注入日志
//   - 支持动态级别控制
package observability
