// xshipd 从标准输入逐行读取日志记录，写入带轮转和保留策略的日志文件。
//
// 用法:
//
//	xshipd [选项]
//
// 输入:
//
//	默认每行是一个 JSON 对象（NDJSON），缺失的 name/pid/hostname/time 字段
//	由本进程补齐，无法解析的行作为 msg 写入。--raw 时每行原样写入。
//
// 配置:
//
//	--config 指定 yaml/json 配置文件，命令行选项覆盖文件中的值。
//	配置文件中 log.level 的修改会被热加载。
//
// 信号:
//
//	SIGHUP            立即轮转
//	SIGINT/SIGTERM    排空队列后退出，超过 --shutdown-timeout 时丢弃剩余记录
//
// 退出码:
//
//	0: 输入结束或收到退出信号后正常关闭
//	1: 运行错误
//	2: 参数或配置错误
//
// 示例:
//
//	myapp | xshipd --path /var/log/myapp.log --period daily --total-files 7 --gzip
//	myapp | xshipd --config /etc/xshipd.yaml --log-level debug
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stderr))
}

// createApp 创建 CLI 应用，in 是记录来源。
func createApp(in io.Reader, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xshipd",
		Usage:     "把标准输入的日志记录写入轮转日志文件",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:     createFlags(),
		Writer:    errOut,
		ErrWriter: errOut,
		// 退出码由 run 统一映射
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, loader, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, loader, in, runtimeFrom(cmd, errOut))
		},
	}
}

func run(ctx context.Context, args []string, in io.Reader, errOut io.Writer) int {
	app := createApp(in, errOut)
	if err := app.Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(errOut, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(errOut, "错误: %v\n", err)
		return 1
	}
	return 0
}
