package xrun

import (
	"context"
	"time"
)

// Shutdown 返回一个收尾服务：等待 ctx 取消后调用 fn 完成清理，并返回 fn 的错误。
//
// fn 收到的 context 不继承 ctx 的取消，timeout 大于 0 时带该超时。
//
//	g.Go(xrun.Shutdown(5*time.Second, stream.Close))
func Shutdown(timeout time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		<-ctx.Done()

		shutdownCtx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, timeout)
			defer cancel()
		}
		return fn(shutdownCtx)
	}
}

// Ticker 返回周期性执行 fn 的服务函数。interval 必须为正数。
// immediate 为 true 时启动后先执行一次。ctx 取消时返回 ctx.Err()。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}

		if immediate {
			// 已取消的 context 不触发副作用
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
