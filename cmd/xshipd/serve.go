package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/omeyang/xship/pkg/config/xconf"
	"github.com/omeyang/xship/pkg/lifecycle/xrun"
	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/observability/xlog"
	"github.com/omeyang/xship/pkg/observability/xmetrics"
	"github.com/omeyang/xship/pkg/observability/xrotate"
	"github.com/omeyang/xship/pkg/util/xproc"
)

// buildLogger 创建诊断日志。cfg.File 非空时写入 lumberjack 轮转文件。
func buildLogger(cfg xconf.Log, id xproc.Identity, out io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetLevelString(cfg.Level).
		SetFormat(cfg.Format).
		SetProcess(id)
	if out != nil {
		b = b.SetOutput(out)
	}
	if cfg.File != "" {
		b = b.SetRotation(cfg.File, xrotate.WithMaxSize(10), xrotate.WithMaxBackups(3), xrotate.WithCompress(true))
	}
	return b.Build()
}

// serve 运行守护进程直到输入结束、收到退出信号或出错。
func serve(ctx context.Context, cfg xconf.Config, loader *xconf.Loader, in io.Reader, rt runtimeOptions) (err error) {
	id := xproc.Current()
	logger, closeLog, err := buildLogger(cfg.Log, id, rt.logOutput)
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	opts, err := streamOptions(cfg.Stream)
	if err != nil {
		return &usageError{err: err}
	}
	s, err := xstream.New(cfg.Stream.Path, opts...)
	if err != nil {
		return &usageError{err: err}
	}
	sctx := xlog.WithStream(ctx, s.ID())
	defer logEvents(logger, s)()

	recorder, err := xmetrics.NewRecorder()
	if err != nil {
		return err
	}
	defer recorder.Attach(s)()

	reportTrigger := func(err error) {
		// 关闭过程中排空的写入仍可能触发按大小轮转
		if errors.Is(err, xstream.ErrClosed) {
			return
		}
		logger.Warn(sctx, "rotation trigger failed", xlog.Err(err))
	}
	stopTriggers, err := startTriggers(s, cfg.Trigger, reportTrigger)
	if err != nil {
		s.Destroy()
		return err
	}
	defer func() {
		if stopErr := stopTriggers(); stopErr != nil {
			logger.Warn(sctx, "stop triggers", xlog.Err(stopErr))
		}
	}()

	if loader != nil {
		w, werr := watchLogLevel(loader, logger)
		if werr != nil {
			logger.Warn(sctx, "config hot reload disabled", xlog.Err(werr))
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	s.Init()
	logger.Info(sctx, "xshipd started", xlog.Path(s.Path()), slog.String("format", s.Format().String()))

	g, _ := xrun.NewGroup(ctx, xrun.WithLogger(logger), xrun.WithName("xshipd"))
	g.GoWithName("signals", g.ExitOnSignal)
	g.GoWithName("input", func(ctx context.Context) error {
		dec := decoder{raw: cfg.Stream.Raw, id: id, now: time.Now}
		perr := pump(ctx, in, s, dec, func(err error) {
			logger.Debug(sctx, "input line", xlog.Err(err))
		})
		if perr != nil {
			return fmt.Errorf("read input: %w", perr)
		}
		// 输入结束，正常关闭
		g.Cancel(nil)
		return nil
	})
	g.GoWithName("rotate-on-hup", g.OnSignal(func(context.Context, os.Signal) error {
		s.Rotate(xrotate.Trigger{Reason: xrotate.ReasonManual}, func(err error) {
			if err != nil && !errors.Is(err, xstream.ErrRotating) {
				logger.Warn(sctx, "manual rotation failed", xlog.Err(err))
			}
		})
		return nil
	}, syscall.SIGHUP))
	if rt.statsInterval > 0 {
		g.GoWithName("stats", xrun.Ticker(rt.statsInterval, false, func(context.Context) error {
			logStats(sctx, logger, s)
			return nil
		}))
	}
	g.GoWithName("shutdown", xrun.Shutdown(rt.shutdownTimeout, s.Close))

	err = g.Wait()
	logStats(sctx, logger, s)
	if errors.Is(err, xrun.ErrSignal) {
		logger.Info(sctx, "xshipd stopped", xlog.Reason(err.Error()))
		return nil
	}
	return err
}

// watchLogLevel 监视配置文件，热加载 log.level。
func watchLogLevel(loader *xconf.Loader, logger xlog.LoggerWithLevel) (*xconf.Watcher, error) {
	ctx := context.Background()
	w, err := xconf.Watch(loader, func(cfg xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "reload config", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(cfg.Log.Level)
		if err != nil {
			logger.Warn(ctx, "reload config", xlog.Err(err))
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info(ctx, "log level changed", slog.String("level", level.String()))
		}
	})
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}

func logStats(ctx context.Context, logger xlog.Logger, s *xstream.Stream) {
	st := s.Stats()
	logger.Info(ctx, "stream stats",
		xlog.QueueLen(s.QueueLen()),
		slog.Group("records",
			slog.Uint64("pushed", st.Pushed),
			slog.Uint64("written", st.Written),
			slog.Uint64("evicted", st.Evicted),
			slog.Uint64("rolled_back", st.RolledBack),
			slog.Uint64("failed", st.Failed),
			slog.Uint64("discarded", st.Discarded),
		),
	)
}
