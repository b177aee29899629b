package xconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `stream:
  path: /var/log/app.log
  total_files: 5
  total_size: 1g
  gzip: true
  format: text
  field_order: [time, level]
  capacity: 500
trigger:
  period: daily
  threshold: 100m
  watch: true
log:
  level: debug
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// New / NewFromBytes
// =============================================================================

func TestNew(t *testing.T) {
	t.Run("YAML 文件", func(t *testing.T) {
		l, err := New(writeFile(t, "xshipd.yaml", sampleYAML))
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, l.Format())
		assert.Equal(t, "/var/log/app.log", l.Client().String("stream.path"))
	})

	t.Run("yml 扩展名", func(t *testing.T) {
		l, err := New(writeFile(t, "xshipd.yml", sampleYAML))
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, l.Format())
	})

	t.Run("JSON 文件", func(t *testing.T) {
		l, err := New(writeFile(t, "xshipd.json", `{"stream":{"path":"a.log"}}`))
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, l.Format())
		assert.Equal(t, "a.log", l.Client().String("stream.path"))
	})

	t.Run("空文件", func(t *testing.T) {
		l, err := New(writeFile(t, "empty.yaml", ""))
		require.NoError(t, err)
		assert.Empty(t, l.Client().Keys())
	})

	t.Run("空路径", func(t *testing.T) {
		_, err := New("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("未知扩展名", func(t *testing.T) {
		_, err := New(writeFile(t, "xshipd.toml", ""))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, ErrLoadFailed)
	})

	t.Run("解析失败", func(t *testing.T) {
		_, err := New(writeFile(t, "bad.json", "{"))
		assert.ErrorIs(t, err, ErrParseFailed)
	})

	t.Run("自定义分隔符", func(t *testing.T) {
		l, err := New(writeFile(t, "xshipd.yaml", sampleYAML), WithDelim("/"))
		require.NoError(t, err)
		assert.Equal(t, "text", l.Client().String("stream/format"))
	})
}

func TestNewFromBytes(t *testing.T) {
	l, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, l.Path())
	assert.Equal(t, 5, l.Client().Int("stream.total_files"))

	_, err = NewFromBytes(nil, "toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	empty, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	cfg, err := empty.Config()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.ErrorIs(t, l.Reload(), ErrNotWatchable)
}

// =============================================================================
// Config
// =============================================================================

func TestLoader_ConfigOverlaysDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "xshipd.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/log/app.log", cfg.Stream.Path)
	assert.Equal(t, 5, cfg.Stream.TotalFiles)
	assert.Equal(t, "1g", cfg.Stream.TotalSize)
	assert.True(t, cfg.Stream.Gzip)
	assert.Equal(t, "text", cfg.Stream.Format)
	assert.Equal(t, []string{"time", "level"}, cfg.Stream.FieldOrder)
	assert.Equal(t, 500, cfg.Stream.Capacity)
	assert.Equal(t, Default().Stream.BatchSize, cfg.Stream.BatchSize, "未出现的键保留默认值")
	assert.Equal(t, "oldest", cfg.Stream.Eviction)
	assert.Equal(t, Trigger{Period: "daily", Threshold: "100m", Watch: true}, cfg.Trigger)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_WeakTyping(t *testing.T) {
	l, err := NewFromBytes([]byte(`{"stream":{"capacity":"42","gzip":"true"}}`), FormatJSON)
	require.NoError(t, err)
	cfg, err := l.Config()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Stream.Capacity)
	assert.True(t, cfg.Stream.Gzip)
}

func TestLoader_UnmarshalFailed(t *testing.T) {
	l, err := NewFromBytes([]byte(`{"stream":{"capacity":"many"}}`), FormatJSON)
	require.NoError(t, err)
	_, err = l.Config()
	assert.ErrorIs(t, err, ErrUnmarshalFailed)
}

func TestLoader_Reload(t *testing.T) {
	path := writeFile(t, "xshipd.yaml", "log:\n  level: info\n")
	l, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.NoError(t, l.Reload())
	assert.Equal(t, "warn", l.Client().String("log.level"))

	require.NoError(t, os.WriteFile(path, []byte("log: [\n"), 0o600))
	assert.ErrorIs(t, l.Reload(), ErrParseFailed)
	assert.Equal(t, "warn", l.Client().String("log.level"), "失败时保留旧配置")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Stream.Path = "/var/log/app.log"
		return c
	}
	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"缺少路径", func(c *Config) { c.Stream.Path = " " }, "stream.path"},
		{"负的文件数", func(c *Config) { c.Stream.TotalFiles = -1 }, "stream.total_files"},
		{"无效总大小", func(c *Config) { c.Stream.TotalSize = "huge" }, "stream.total_size"},
		{"未知格式", func(c *Config) { c.Stream.Format = "xml" }, "stream.format"},
		{"负的容量", func(c *Config) { c.Stream.Capacity = -1 }, "stream.capacity"},
		{"负的批大小", func(c *Config) { c.Stream.BatchSize = -1 }, "stream.batch_size"},
		{"未知淘汰策略", func(c *Config) { c.Stream.Eviction = "random" }, "stream.eviction"},
		{"无效周期", func(c *Config) { c.Trigger.Period = "sometimes" }, "trigger.period"},
		{"无效阈值", func(c *Config) { c.Trigger.Threshold = "big" }, "trigger.threshold"},
		{"未知日志级别", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"未知日志格式", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("合并多个错误", func(t *testing.T) {
		c := Config{Stream: Stream{TotalFiles: -1}}
		err := c.Validate()
		assert.Contains(t, err.Error(), "stream.path")
		assert.Contains(t, err.Error(), "stream.total_files")
	})
}
