package xconf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omeyang/xship/pkg/logship/xqueue"
	"github.com/omeyang/xship/pkg/logship/xserial"
	"github.com/omeyang/xship/pkg/logship/xtrigger"
	"github.com/omeyang/xship/pkg/util/xsize"
)

// Config 是 xshipd 的完整配置。
type Config struct {
	Stream  Stream  `koanf:"stream" json:"stream"`
	Trigger Trigger `koanf:"trigger" json:"trigger"`
	Log     Log     `koanf:"log" json:"log"`
}

// Stream 对应 xstream 的选项。
type Stream struct {
	Path          string   `koanf:"path" json:"path"`
	TotalFiles    int      `koanf:"total_files" json:"total_files"`
	TotalSize     string   `koanf:"total_size" json:"total_size"`
	Gzip          bool     `koanf:"gzip" json:"gzip"`
	Format        string   `koanf:"format" json:"format"`
	FieldOrder    []string `koanf:"field_order" json:"field_order"`
	NoCyclesCheck bool     `koanf:"no_cycles_check" json:"no_cycles_check"`
	Raw           bool     `koanf:"raw" json:"raw"`
	StartNewFile  bool     `koanf:"start_new_file" json:"start_new_file"`
	Shared        bool     `koanf:"shared" json:"shared"`
	Capacity      int      `koanf:"capacity" json:"capacity"`
	BatchSize     int      `koanf:"batch_size" json:"batch_size"`
	Eviction      string   `koanf:"eviction" json:"eviction"`
}

// Trigger 对应 xtrigger 的触发器，空值表示不启用。
type Trigger struct {
	Period    string `koanf:"period" json:"period"`
	Threshold string `koanf:"threshold" json:"threshold"`
	Watch     bool   `koanf:"watch" json:"watch"`
}

// Log 是 xshipd 自身诊断日志的配置。
type Log struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	// File 为空时输出到 stderr，否则经 lumberjack 轮转。
	File string `koanf:"file" json:"file"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Stream: Stream{
			Format:    xserial.FormatJSON.String(),
			Capacity:  xqueue.DefaultCapacity,
			BatchSize: xqueue.DefaultBatchSize,
			Eviction:  xqueue.EvictOldest.String(),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 检查配置值，返回所有问题合并后的错误。
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	s := c.Stream
	if strings.TrimSpace(s.Path) == "" {
		add("stream.path is required")
	}
	if s.TotalFiles < 0 {
		add("stream.total_files must not be negative")
	}
	if _, err := xsize.Parse(s.TotalSize); err != nil {
		add("stream.total_size: %v", err)
	}
	if _, ok := xserial.ParseFormat(s.Format); !ok {
		add("stream.format %q", s.Format)
	}
	if s.Capacity < 0 {
		add("stream.capacity must not be negative")
	}
	if s.BatchSize < 0 {
		add("stream.batch_size must not be negative")
	}
	if _, err := xqueue.ParseEviction(s.Eviction); err != nil {
		add("stream.eviction: %v", err)
	}

	if c.Trigger.Period != "" {
		if _, err := xtrigger.ParsePeriod(c.Trigger.Period); err != nil {
			add("trigger.period: %v", err)
		}
	}
	if n, err := xsize.Parse(c.Trigger.Threshold); err != nil {
		add("trigger.threshold: %v", err)
	} else if n < 0 {
		add("trigger.threshold must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format %q", c.Log.Format)
	}
	return errors.Join(errs...)
}
