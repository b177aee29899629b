package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xship/pkg/observability/xrotate"
	"github.com/omeyang/xship/pkg/util/xproc"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := New().SetOutput(buf).SetFormat("json").SetLevel(LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

// =============================================================================
// Builder
// =============================================================================

func TestBuilder_Defaults(t *testing.T) {
	logger, cleanup, err := New().Build()
	require.NoError(t, err)
	assert.NoError(t, cleanup())
	assert.Equal(t, LevelInfo, logger.GetLevel())
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{"未知格式", New().SetFormat("xml"), "unknown format"},
		{"未知级别", New().SetLevelString("loud"), "unknown level"},
		{"空输出", New().SetOutput(nil), "nil output"},
		{"第一个错误生效", New().SetFormat("xml").SetLevelString("loud"), "unknown format"},
		{"轮转参数无效", New().SetRotation(filepath.Join(t.TempDir(), "d.log"), xrotate.WithMaxSize(-1)), "xrotate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuilder_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetFormat(" TEXT ").Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "opened", Path("/var/log/app.log"), Version(2))
	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=opened")
	assert.Contains(t, out, "path=/var/log/app.log")
	assert.Contains(t, out, "version=2")
}

func TestBuilder_ProcessAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().
		SetOutput(&buf).
		SetFormat("json").
		SetProcess(xproc.Identity{Name: "xshipd", PID: 42, Hostname: "box"}).
		SetAttrs(slog.String("component", "ship")).
		Build()
	require.NoError(t, err)

	logger.Warn(context.Background(), "losing data", QueueLen(10000))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, map[string]any{"name": "xshipd", "pid": float64(42), "hostname": "box"}, lines[0][KeyProcess])
	assert.Equal(t, "ship", lines[0]["component"])
	assert.Equal(t, float64(10000), lines[0][KeyQueueLen])
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xshipd.log")
	logger, cleanup, err := New().SetRotation(path, xrotate.WithMaxSize(1)).Build()
	require.NoError(t, err)

	logger.Error(context.Background(), "rotate failed", Err(errors.New("disk full")))
	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "清理函数可重复调用")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `error="disk full"`)
}

func TestBuilder_RotationEmptyKeepsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).SetRotation("").Build()
	require.NoError(t, err)
	logger.Info(context.Background(), "kept")
	assert.NoError(t, cleanup())
	assert.Contains(t, buf.String(), "kept")
}

func TestBuilder_ReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetFormat("json").SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "x")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], slog.TimeKey)
}

func TestBuilder_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetFormat("json").SetAddSource(true).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "here")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	src, ok := lines[0][slog.SourceKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "xlog_test.go", filepath.Base(src["file"].(string)), "源码位置指向调用方")
}

// =============================================================================
// Logger
// =============================================================================

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	ctx := context.Background()

	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e")
	assert.Len(t, decodeLines(t, &buf), 4)

	buf.Reset()
	logger.SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, logger.GetLevel())
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(nil, LevelError)) //nolint:staticcheck // nil ctx 安全退化

	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0][slog.MessageKey])
}

func TestLogger_DerivedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	child := logger.With(Reason("size")).WithGroup("rotation")
	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))

	logger.SetLevel(LevelError)
	child.Warn(context.Background(), "suppressed")
	assert.Empty(t, buf.String())

	child.Error(context.Background(), "failed", Duration(time.Second))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "size", lines[0][KeyReason])
	assert.Equal(t, map[string]any{KeyDuration: "1s"}, lines[0]["rotation"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestLogger_OnError(t *testing.T) {
	var got []error
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(err error) {
		got = append(got, err)
	}).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "a")
	logger.With(Count(1)).Info(context.Background(), "b")
	assert.Len(t, got, 2)
	assert.Equal(t, uint64(2), ErrorCount(logger))
}

func TestLogger_OnErrorPanicIsolated(t *testing.T) {
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(error) {
		panic("callback")
	}).Build()
	require.NoError(t, err)

	assert.NotPanics(t, func() { logger.Info(context.Background(), "a") })
	assert.Equal(t, uint64(2), ErrorCount(logger), "回调 panic 也计入错误")
}

func TestLogger_OnErrorNoRecursion(t *testing.T) {
	var calls int
	var logger LoggerWithLevel
	logger, _, err := New().SetOutput(failingWriter{}).SetOnError(func(error) {
		calls++
		logger.Error(context.Background(), "inside callback")
	}).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "a")
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(2), ErrorCount(logger))
}

func TestErrorCount_ForeignLogger(t *testing.T) {
	assert.Zero(t, ErrorCount(nil))
}

// =============================================================================
// Context
// =============================================================================

func TestContextHandler_InjectsStream(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	ctx := WithStream(context.Background(), "s-1")
	id, ok := StreamFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s-1", id)

	logger.Info(ctx, "with stream")
	logger.Info(context.Background(), "without stream")
	logger.Info(nil, "nil ctx") //nolint:staticcheck // nil ctx 安全退化

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "s-1", lines[0][KeyStream])
	assert.NotContains(t, lines[1], KeyStream)
	assert.NotContains(t, lines[2], KeyStream)
}

func TestContextHandler_Helpers(t *testing.T) {
	_, err := NewContextHandler(nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	_, ok := StreamFrom(nil) //nolint:staticcheck // nil ctx 安全退化
	assert.False(t, ok)
	_, ok = StreamFrom(WithStream(nil, "")) //nolint:staticcheck // nil ctx 安全退化
	assert.False(t, ok, "空 ID 视为不存在")

	var buf bytes.Buffer
	h, err := NewContextHandler(slog.NewJSONHandler(&buf, nil))
	require.NoError(t, err)
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))

	l := slog.New(h.WithAttrs([]slog.Attr{slog.Int("a", 1)}).WithGroup("g"))
	l.InfoContext(WithStream(context.Background(), "s-2"), "grouped", "b", 2)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(1), lines[0]["a"])
	assert.Equal(t, map[string]any{"b": float64(2), KeyStream: "s-2"}, lines[0]["g"])
}

// =============================================================================
// Level / Attrs
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("fatal")
	assert.Error(t, err)
}

func TestLevel_Text(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "INFO+2", Level(2).String())

	b, err := LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ERROR", string(b))

	var l Level
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, LevelDebug, l)
	assert.Error(t, l.UnmarshalText([]byte("verbose")))
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, slog.String(KeyError, "boom"), Err(errors.New("boom")))
	assert.Equal(t, slog.String(KeyBytes, "1.5KiB"), Bytes(1536))
	assert.Equal(t, slog.Int(KeyCount, 3), Count(3))
	assert.Equal(t, slog.String(KeyDuration, "2ms"), Duration(2*time.Millisecond))
}
