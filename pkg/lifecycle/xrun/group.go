package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xship/pkg/observability/xlog"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭。
//
// 当任一服务返回错误或 context 被取消时，所有服务都会收到取消信号。
// Go、GoWithName、Cancel 可并发调用，Wait 应仅调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 context 在任一服务返回错误或 Cancel 时取消。
// nil ctx 按 context.Background() 处理。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(options)
	}
	if options.logger != nil {
		options.logger = options.logger.With(slog.String("group", options.name))
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动一个服务。fn 应监听 ctx.Done()，返回非 nil 错误会取消其他服务。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，但会在日志中记录服务名称。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.log(slog.LevelDebug, "service starting", slog.String("service", name))
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.log(slog.LevelWarn, "service exited with error",
				slog.String("service", name), xlog.Err(err))
		} else {
			g.log(slog.LevelDebug, "service stopped", slog.String("service", name))
		}
		return err
	})
}

// Wait 等待所有服务退出，返回第一个非 nil 错误。
//
// 错误是 context.Canceled 且 Group 已被取消时，返回显式的取消原因（如
// [SignalError]），没有原因时返回 nil。所有服务都返回 nil 时，Cancel 设置的
// 原因同样会被返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.log(slog.LevelDebug, "all services stopped")

	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() != nil {
			return g.cause()
		}
		// Group 未被取消，context.Canceled 来自服务内部
		return err
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.cause()
	}
	return err
}

func (g *Group) cause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务。cause 会由 Wait 返回，nil 表示正常退出。
//
// cause 不应包装 context.Canceled，否则 Wait 会将其视为普通取消而过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) log(level slog.Level, msg string, attrs ...slog.Attr) {
	l := g.opts.logger
	if l == nil {
		return
	}
	ctx := context.Background()
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Info(ctx, msg, attrs...)
	}
}

// ----------------------------------------------------------------------------
// Service
// ----------------------------------------------------------------------------

// Service 定义可管理的服务。Run 阻塞直到 ctx 被取消或发生错误。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数转换为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service 接口。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run 运行 services 并监听退出信号，任一服务出错或收到信号时协调关闭。
// 因信号退出时返回 *SignalError。nil service 返回 ErrNilService。
func Run(ctx context.Context, opts []Option, services ...Service) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.Go(g.ExitOnSignal)
	}
	for _, svc := range services {
		if svc == nil {
			g.Go(func(context.Context) error { return ErrNilService })
			continue
		}
		g.Go(svc.Run)
	}
	return g.Wait()
}
