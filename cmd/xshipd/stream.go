package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xship/pkg/config/xconf"
	"github.com/omeyang/xship/pkg/logship/xqueue"
	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/logship/xstream"
	"github.com/omeyang/xship/pkg/logship/xtrigger"
	"github.com/omeyang/xship/pkg/observability/xlog"
	"github.com/omeyang/xship/pkg/util/xfile"
	"github.com/omeyang/xship/pkg/util/xsize"
)

// streamOptions 把配置转换为流选项。
func streamOptions(c xconf.Stream) ([]xstream.Option, error) {
	format, ok := xserial.ParseFormat(c.Format)
	if !ok {
		return nil, fmt.Errorf("%w: stream.format %q", xconf.ErrInvalidConfig, c.Format)
	}
	eviction, err := xqueue.ParseEviction(c.Eviction)
	if err != nil {
		return nil, err
	}

	opts := []xstream.Option{
		xstream.WithTotalFiles(c.TotalFiles),
		xstream.WithTotalSize(c.TotalSize),
		xstream.WithGzip(c.Gzip),
		xstream.WithFormat(format),
		xstream.WithNoCyclesCheck(c.NoCyclesCheck),
		xstream.WithRaw(c.Raw),
		xstream.WithStartNewFile(c.StartNewFile),
		xstream.WithShared(c.Shared),
		xstream.WithCapacity(c.Capacity),
		xstream.WithBatchSize(c.BatchSize),
		xstream.WithEviction(eviction),
	}
	if len(c.FieldOrder) > 0 {
		opts = append(opts, xstream.WithFieldOrder(c.FieldOrder...))
	}
	return opts, nil
}

// stopper 是已启动的触发器。
type stopper func() error

// startTriggers 按配置创建并启动触发器，返回按相反顺序停止它们的函数。
// 任一触发器创建失败时已启动的会被停止。
func startTriggers(s *xstream.Stream, c xconf.Trigger, onError func(error)) (func() error, error) {
	var stops []stopper
	stopAll := func() error {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			errs = append(errs, stops[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (func() error, error) {
		return nil, errors.Join(err, stopAll())
	}
	opts := []xtrigger.Option{xtrigger.WithOnError(onError)}

	threshold, err := xsize.Parse(c.Threshold)
	if err != nil {
		return fail(err)
	}
	if threshold > 0 {
		size, err := xtrigger.NewSize(s, threshold, opts...)
		if err != nil {
			return fail(err)
		}
		stops = append(stops, func() error { size.Stop(); return nil })
	}

	if c.Period != "" {
		period, err := xtrigger.NewPeriod(s, c.Period, opts...)
		if err != nil {
			return fail(err)
		}
		period.Start()
		stops = append(stops, func() error { period.Stop(); return nil })
	}

	if c.Watch {
		// 目录在文件首次打开前可能还不存在
		if err := xfile.EnsureDir(s.Path()); err != nil {
			return fail(err)
		}
		watcher, err := xtrigger.NewMoveWatcher(s, s.Path(), opts...)
		if err != nil {
			return fail(err)
		}
		watcher.Start()
		stops = append(stops, watcher.Stop)
	}
	return stopAll, nil
}

// logEvents 把流的事件写入诊断日志，返回取消订阅函数。
func logEvents(logger xlog.Logger, s *xstream.Stream) func() {
	ctx := xlog.WithStream(context.Background(), s.ID())
	offs := []func(){
		s.On(xstream.EventError, func(e xstream.Event) {
			logger.Error(ctx, "stream error", xlog.Err(e.Err))
		}),
		s.On(xstream.EventNewFile, func(e xstream.Event) {
			logger.Info(ctx, "new file",
				xlog.Path(e.File.Path), xlog.Version(e.File.Version), xlog.Reason(e.File.Reason))
		}),
		s.On(xstream.EventLosingData, func(e xstream.Event) {
			logger.Warn(ctx, "queue full, losing data", xlog.QueueLen(e.QueueLen))
		}),
		s.On(xstream.EventCaughtUp, func(xstream.Event) {
			logger.Info(ctx, "queue caught up")
		}),
		s.On(xstream.EventPerfRotation, func(e xstream.Event) {
			if e.Err != nil {
				return
			}
			logger.Debug(ctx, "rotated", xlog.Reason(e.Trigger.Reason), xlog.Duration(e.Duration))
		}),
		s.On(xstream.EventShutdown, func(e xstream.Event) {
			if e.Err != nil {
				logger.Warn(ctx, "stream shut down with error", xlog.Err(e.Err))
				return
			}
			logger.Info(ctx, "stream shut down")
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
