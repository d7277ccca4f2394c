// chkitctl 是 chkit 库的命令行客户端，用于对 ClickHouse 做快速查询与排障。
//
// 用法:
//
//	chkitctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config    配置文件路径 (.yaml/.json)，省略时用内置默认值
//	-H, --host      服务器主机名（覆盖配置文件）
//	-P, --port      HTTP 端口（覆盖配置文件）
//	-d, --database  数据库名（覆盖配置文件）
//	-u, --user      用户名
//	-p, --password  密码
//
// 命令:
//
//	query <sql>    执行查询并打印结果（--stream 流式逐行输出）
//	ping           探测服务器存活
//	type <name>    解析 ClickHouse 类型名并打印语法树
//
// 退出码:
//
//	0: 成功（ping 命令: 服务器在线）
//	1: 执行失败或服务器离线
//	2: 参数错误
//
// 示例:
//
//	chkitctl -H ch.example.com query "SELECT count() FROM system.tables"
//	chkitctl -c prod.yaml query --stream "SELECT * FROM events LIMIT 100"
//	chkitctl type "Map(String, Array(Nullable(UInt64)))"
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/chkit/pkg/chclient"
	"github.com/omeyang/chkit/pkg/chconf"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "chkitctl",
		Usage:   "ClickHouse HTTP 客户端命令行工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (.yaml/.json)",
			},
			&cli.StringFlag{
				Name:    "host",
				Aliases: []string{"H"},
				Usage:   "服务器主机名",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"P"},
				Usage:   "HTTP 端口",
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "数据库名",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "用户名",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "密码",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// 退出码由 run() 统一映射，此处只负责输出消息。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if errors.Is(err, chclient.ErrConfig) {
			fmt.Fprintf(os.Stderr, "配置错误: %v\n", err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig 组装客户端配置：配置文件打底，命令行 flag 覆盖。
func loadConfig(cmd *cli.Command) (chclient.Config, error) {
	cfg := chclient.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := chconf.Load(path)
		if err != nil {
			return chclient.Config{}, err
		}
		cfg = loaded
	}

	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = int(port)
	}
	if db := cmd.String("database"); db != "" {
		cfg.Database = db
	}
	if user := cmd.String("user"); user != "" {
		cfg.Username = user
	}
	if pw := cmd.String("password"); pw != "" {
		cfg.Password = pw
	}

	if err := cfg.Validate(); err != nil {
		return chclient.Config{}, err
	}
	return cfg, nil
}

// usageError 表示参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
