// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
// xrun 基于 Go 官方扩展库 [errgroup] 构建，提供：
//   - 多服务并发运行和协调关闭
//   - 退出信号处理（SIGINT、SIGTERM、SIGQUIT）
//   - 非退出信号的重复处理（如 SIGHUP 触发日志轮转）
//   - 带超时的收尾服务
//
// # 快速开始
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithLogger(logger)},
//	    xrun.ServiceFunc(pump),
//	    xrun.ServiceFunc(xrun.Shutdown(5*time.Second, stream.Close)),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常退出
//	}
//
// 在 Group 上注册非退出信号：
//
//	g, ctx := xrun.NewGroup(ctx)
//	g.Go(g.OnSignal(func(ctx context.Context, sig os.Signal) error {
//	    stream.Rotate(xrotate.Trigger{Reason: xrotate.ReasonManual}, nil)
//	    return nil
//	}, syscall.SIGHUP))
//
// # 错误处理
//
// Wait() 的错误处理遵循以下规则：
//   - 服务返回非 nil、非 context.Canceled 的错误时，Wait() 直接返回该错误
//   - Group 被主动取消且有显式 cause 时（如 [SignalError]），Wait() 返回该 cause
//   - Group 被取消且无显式 cause 时，Wait() 返回 nil
//   - context.Canceled 来自服务内部（Group 未被取消）时不过滤
//
// 直接使用 NewGroup 时不包含退出信号处理，可注册 [Group.ExitOnSignal]
// 或自行调用 [Group.Cancel]。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
