package xmetrics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xship/pkg/logship/xstream"
)

// 指标名称。
const (
	MetricRecords          = "xship.stream.records"
	MetricBytes            = "xship.stream.bytes"
	MetricBatchDuration    = "xship.stream.batch.duration"
	MetricRotations        = "xship.stream.rotations"
	MetricRotationDuration = "xship.stream.rotation.duration"
	MetricErrors           = "xship.stream.errors"
	MetricOverloads        = "xship.stream.overloads"
	MetricQueueLength      = "xship.stream.queue.length"
)

// 属性名称。
const (
	AttrStreamID = "stream.id"
	AttrReason   = "reason"
	AttrStatus   = "status"
)

// Source 是可订阅事件的日志流，*xstream.Stream 实现了此接口。
type Source interface {
	On(kind xstream.EventKind, fn xstream.Handler) func()
}

var _ Source = (*xstream.Stream)(nil)

// Recorder 把流事件转为指标。并发安全，可以同时附加到多个流。
type Recorder struct {
	attrs []attribute.KeyValue

	records          metric.Int64Counter
	bytes            metric.Int64Counter
	batchDuration    metric.Float64Histogram
	rotations        metric.Int64Counter
	rotationDuration metric.Float64Histogram
	errors           metric.Int64Counter
	overloads        metric.Int64Counter
	queueLength      metric.Int64Gauge
}

// NewRecorder 创建 Recorder。
func NewRecorder(opts ...Option) (*Recorder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(cfg)
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	r := &Recorder{attrs: cfg.attrs}
	var errs []error
	wrap := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, name, err))
		}
	}

	var err error
	r.records, err = meter.Int64Counter(MetricRecords,
		metric.WithDescription("records written to the current file"), metric.WithUnit("{record}"))
	wrap(MetricRecords, err)
	r.bytes, err = meter.Int64Counter(MetricBytes,
		metric.WithDescription("bytes written to the current file"), metric.WithUnit("By"))
	wrap(MetricBytes, err)
	r.batchDuration, err = meter.Float64Histogram(MetricBatchDuration,
		metric.WithDescription("duration of one batch write"), metric.WithUnit("s"))
	wrap(MetricBatchDuration, err)
	r.rotations, err = meter.Int64Counter(MetricRotations,
		metric.WithDescription("rotation attempts"), metric.WithUnit("{rotation}"))
	wrap(MetricRotations, err)
	r.rotationDuration, err = meter.Float64Histogram(MetricRotationDuration,
		metric.WithDescription("duration of one rotation"), metric.WithUnit("s"))
	wrap(MetricRotationDuration, err)
	r.errors, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("error events"), metric.WithUnit("{error}"))
	wrap(MetricErrors, err)
	r.overloads, err = meter.Int64Counter(MetricOverloads,
		metric.WithDescription("times the queue started dropping records"), metric.WithUnit("{event}"))
	wrap(MetricOverloads, err)
	r.queueLength, err = meter.Int64Gauge(MetricQueueLength,
		metric.WithDescription("records waiting in the write queue"), metric.WithUnit("{record}"))
	wrap(MetricQueueLength, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Attach 订阅 src 的事件，返回取消订阅函数（幂等）。
func (r *Recorder) Attach(src Source) func() {
	offs := []func(){
		src.On(xstream.EventPerfWriteBatch, r.Record),
		src.On(xstream.EventPerfRotation, r.Record),
		src.On(xstream.EventPerfQueued, r.Record),
		src.On(xstream.EventError, r.Record),
		src.On(xstream.EventLosingData, r.Record),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Record 记录一个事件。不产生指标的事件类型被忽略。
func (r *Recorder) Record(e xstream.Event) {
	ctx := context.Background()
	base := r.attributes(e.StreamID)

	switch e.Kind {
	case xstream.EventPerfWriteBatch:
		set := metric.WithAttributes(append(base, statusAttr(e.Err))...)
		r.records.Add(ctx, int64(e.Count), set)
		r.bytes.Add(ctx, int64(e.Bytes), set)
		r.batchDuration.Record(ctx, e.Duration.Seconds(), set)
		r.queueLength.Record(ctx, int64(e.QueueLen), metric.WithAttributes(base...))

	case xstream.EventPerfRotation:
		set := metric.WithAttributes(append(base,
			attribute.String(AttrReason, e.Trigger.Reason),
			statusAttr(e.Err),
		)...)
		r.rotations.Add(ctx, 1, set)
		r.rotationDuration.Record(ctx, e.Duration.Seconds(), set)

	case xstream.EventPerfQueued:
		r.queueLength.Record(ctx, int64(e.QueueLen), metric.WithAttributes(base...))

	case xstream.EventError:
		r.errors.Add(ctx, 1, metric.WithAttributes(base...))

	case xstream.EventLosingData:
		r.overloads.Add(ctx, 1, metric.WithAttributes(base...))
	}
}

func (r *Recorder) attributes(streamID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(r.attrs)+3)
	attrs = append(attrs, r.attrs...)
	return append(attrs, attribute.String(AttrStreamID, streamID))
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String(AttrStatus, "error")
	}
	return attribute.String(AttrStatus, "ok")
}
