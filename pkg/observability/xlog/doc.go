// Package xlog 是 xshipd 自身诊断日志的结构化日志库，基于 log/slog。
//
// 日志流（xstream）本身不打日志，只发布事件；xshipd 通过 xlog
// 把 error、losingdata、caughtup、newfile 等事件写到 stderr 或单独的诊断日志文件，
// 避免诊断信息写回被托管的日志文件。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString(cfg.Log.Level).
//		SetFormat(cfg.Log.Format).
//		SetRotation("/var/log/xshipd.log", xrotate.WithMaxSize(50)).
//		SetProcess(xproc.Current()).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// SetRotation 使用 xrotate.NewLumberjack，诊断日志按大小轮转，
// 与被托管日志文件的轮转（xrotate.Rotator）互不影响。
//
// # 流标识
//
// [WithStream] 把流 ID 放入 context，[ContextHandler] 在每条日志中注入 stream_id。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，
// 可通过 [ParseLevel] 解析，Build 返回的 [LoggerWithLevel] 支持运行时调整，
// xshipd 在配置热重载时据此更新级别。
package xlog
