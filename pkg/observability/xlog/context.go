package xlog

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNilHandler 当 NewContextHandler 的 base handler 为 nil 时返回。
var ErrNilHandler = errors.New("xlog: base handler is nil")

type streamKey struct{}

// WithStream 返回携带流 ID 的 context。
func WithStream(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, streamKey{}, id)
}

// StreamFrom 返回 context 中的流 ID。
func StreamFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(streamKey{}).(string)
	return id, ok && id != ""
}

// ContextHandler 从 context 提取流 ID 并注入日志。
//
// 调用 WithGroup 后注入的 stream_id 会被归入分组下。
type ContextHandler struct {
	base slog.Handler
}

// NewContextHandler 包装 base。
func NewContextHandler(base slog.Handler) (*ContextHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &ContextHandler{base: base}, nil
}

// Enabled 委托给底层 handler。
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 按 slog 契约先 Clone record 再添加属性。
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := StreamFrom(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.String(KeyStream, id))
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler。
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler。
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{base: h.base.WithGroup(name)}
}
