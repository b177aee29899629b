package main

import (
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xship/pkg/config/xconf"
)

const defaultShutdownTimeout = 5 * time.Second

// 命令行选项名称，与配置键一一对应（下划线换成连字符）。
const (
	flagConfig          = "config"
	flagPath            = "path"
	flagTotalFiles      = "total-files"
	flagTotalSize       = "total-size"
	flagGzip            = "gzip"
	flagFormat          = "format"
	flagFieldOrder      = "field-order"
	flagNoCyclesCheck   = "no-cycles-check"
	flagRaw             = "raw"
	flagStartNewFile    = "start-new-file"
	flagShared          = "shared"
	flagCapacity        = "capacity"
	flagBatchSize       = "batch-size"
	flagEviction        = "eviction"
	flagPeriod          = "period"
	flagThreshold       = "threshold"
	flagWatch           = "watch"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagLogFile         = "log-file"
	flagShutdownTimeout = "shutdown-timeout"
	flagStatsInterval   = "stats-interval"
)

// usageError 表示参数或配置错误，退出码为 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func createFlags() []cli.Flag {
	d := xconf.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "配置文件路径（.yaml/.yml/.json）",
			Sources: cli.EnvVars("XSHIPD_CONFIG"),
		},
		&cli.StringFlag{Name: flagPath, Aliases: []string{"o"}, Usage: "日志文件路径"},
		&cli.IntFlag{Name: flagTotalFiles, Usage: "保留的历史代数量，0 表示不限"},
		&cli.StringFlag{Name: flagTotalSize, Usage: "历史代总大小上限，如 100m，空表示不限"},
		&cli.BoolFlag{Name: flagGzip, Usage: "压缩历史代"},
		&cli.StringFlag{Name: flagFormat, Value: d.Stream.Format, Usage: "输出格式：json | text"},
		&cli.StringSliceFlag{Name: flagFieldOrder, Usage: "JSON 输出中优先排列的字段"},
		&cli.BoolFlag{Name: flagNoCyclesCheck, Usage: "跳过循环引用检查"},
		&cli.BoolFlag{Name: flagRaw, Usage: "每行原样写入，不解析"},
		&cli.BoolFlag{Name: flagStartNewFile, Usage: "启动时把已有的非空文件轮转走"},
		&cli.BoolFlag{Name: flagShared, Usage: "文件与其他写入者共享"},
		&cli.IntFlag{Name: flagCapacity, Value: d.Stream.Capacity, Usage: "队列容量"},
		&cli.IntFlag{Name: flagBatchSize, Value: d.Stream.BatchSize, Usage: "单批写入的最大记录数"},
		&cli.StringFlag{Name: flagEviction, Value: d.Stream.Eviction, Usage: "队列满时的淘汰策略：oldest | newest"},
		&cli.StringFlag{Name: flagPeriod, Usage: "周期轮转：hourly、daily、2d、@every 30m 或 cron 表达式"},
		&cli.StringFlag{Name: flagThreshold, Usage: "按大小轮转的阈值，如 10m"},
		&cli.BoolFlag{Name: flagWatch, Usage: "当前文件被外部移走时重新打开"},
		&cli.StringFlag{Name: flagLogLevel, Value: d.Log.Level, Usage: "诊断日志级别"},
		&cli.StringFlag{Name: flagLogFormat, Value: d.Log.Format, Usage: "诊断日志格式：text | json"},
		&cli.StringFlag{Name: flagLogFile, Usage: "诊断日志文件，空表示 stderr"},
		&cli.DurationFlag{Name: flagShutdownTimeout, Value: defaultShutdownTimeout, Usage: "退出时排空队列的超时"},
		&cli.DurationFlag{Name: flagStatsInterval, Usage: "周期输出统计，0 表示不输出"},
	}
}

// loadConfig 加载配置文件（如有），应用命令行覆盖后校验。
// 没有配置文件时返回的 Loader 为 nil。
func loadConfig(cmd *cli.Command) (xconf.Config, *xconf.Loader, error) {
	cfg := xconf.Default()
	var loader *xconf.Loader
	if path := cmd.String(flagConfig); path != "" {
		l, err := xconf.New(path)
		if err != nil {
			return cfg, nil, &usageError{err: err}
		}
		if cfg, err = l.Config(); err != nil {
			return cfg, nil, &usageError{err: err}
		}
		loader = l
	}

	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, &usageError{err: err}
	}
	return cfg, loader, nil
}

// applyFlags 用显式设置的命令行选项覆盖配置。
func applyFlags(cmd *cli.Command, cfg *xconf.Config) {
	s := &cfg.Stream
	setString(cmd, flagPath, &s.Path)
	setInt(cmd, flagTotalFiles, &s.TotalFiles)
	setString(cmd, flagTotalSize, &s.TotalSize)
	setBool(cmd, flagGzip, &s.Gzip)
	setString(cmd, flagFormat, &s.Format)
	if cmd.IsSet(flagFieldOrder) {
		s.FieldOrder = cmd.StringSlice(flagFieldOrder)
	}
	setBool(cmd, flagNoCyclesCheck, &s.NoCyclesCheck)
	setBool(cmd, flagRaw, &s.Raw)
	setBool(cmd, flagStartNewFile, &s.StartNewFile)
	setBool(cmd, flagShared, &s.Shared)
	setInt(cmd, flagCapacity, &s.Capacity)
	setInt(cmd, flagBatchSize, &s.BatchSize)
	setString(cmd, flagEviction, &s.Eviction)

	setString(cmd, flagPeriod, &cfg.Trigger.Period)
	setString(cmd, flagThreshold, &cfg.Trigger.Threshold)
	setBool(cmd, flagWatch, &cfg.Trigger.Watch)

	setString(cmd, flagLogLevel, &cfg.Log.Level)
	setString(cmd, flagLogFormat, &cfg.Log.Format)
	setString(cmd, flagLogFile, &cfg.Log.File)
}

func setString(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = cmd.String(name)
	}
}

func setInt(cmd *cli.Command, name string, dst *int) {
	if cmd.IsSet(name) {
		*dst = cmd.Int(name)
	}
}

func setBool(cmd *cli.Command, name string, dst *bool) {
	if cmd.IsSet(name) {
		*dst = cmd.Bool(name)
	}
}

// runtimeOptions 是只通过命令行设置的运行参数。
type runtimeOptions struct {
	shutdownTimeout time.Duration
	statsInterval   time.Duration
	logOutput       io.Writer
}

func runtimeFrom(cmd *cli.Command, logOutput io.Writer) runtimeOptions {
	return runtimeOptions{
		shutdownTimeout: cmd.Duration(flagShutdownTimeout),
		statsInterval:   cmd.Duration(flagStatsInterval),
		logOutput:       logOutput,
	}
}
