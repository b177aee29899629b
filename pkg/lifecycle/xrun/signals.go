package xrun

import (
	"context"
	"log/slog"
	"os"
	"syscall"

	"github.com/omeyang/xship/pkg/observability/xlog"
)

// DefaultSignals 返回默认的退出信号：SIGINT、SIGTERM、SIGQUIT。
//
// SIGHUP 不在其中，守护进程通常用它触发日志轮转，见 [Group.OnSignal]。
// 每次调用返回新的切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// ExitOnSignal 是一个服务函数：收到第一个退出信号（见 [WithSignals]）时
// 以 *SignalError 取消 Group。[Run] 会自动注册它，直接使用 NewGroup 时可自行注册：
//
//	g.Go(g.ExitOnSignal)
func (g *Group) ExitOnSignal(ctx context.Context) error {
	signals := g.opts.signals
	// 空列表会让 signal.Notify 订阅所有信号
	if len(signals) == 0 {
		signals = DefaultSignals()
	}

	ch := make(chan os.Signal, 1)
	g.opts.notify(ch, signals...)
	defer g.opts.stop(ch)

	select {
	case sig := <-ch:
		g.log(slog.LevelInfo, "received signal", slog.String("signal", sig.String()))
		g.cancel(&SignalError{Signal: sig})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnSignal 返回一个服务函数：每收到 signals 中的一个信号就调用一次 fn，
// 直到 ctx 取消。fn 返回错误时服务以该错误退出。
func (g *Group) OnSignal(fn func(ctx context.Context, sig os.Signal) error, signals ...os.Signal) func(ctx context.Context) error {
	signals = append([]os.Signal(nil), signals...)
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		if len(signals) == 0 {
			return ErrNoSignals
		}

		ch := make(chan os.Signal, 1)
		g.opts.notify(ch, signals...)
		defer g.opts.stop(ch)

		for {
			select {
			case sig := <-ch:
				g.log(slog.LevelInfo, "handling signal", slog.String("signal", sig.String()))
				if err := fn(ctx, sig); err != nil {
					g.log(slog.LevelWarn, "signal handler failed",
						slog.String("signal", sig.String()), xlog.Err(err))
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
