package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/chkit/pkg/chclient"
	"github.com/omeyang/chkit/pkg/chtype"
)

// createCommands 创建全部子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		queryCommand(),
		pingCommand(),
		typeCommand(),
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "执行查询并打印结果",
		ArgsUsage: "<sql>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "流式逐行输出（大结果集）",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "响应格式 (JSONCompact/JSON)",
				Value: string(chclient.FormatJSONCompact),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sql := strings.TrimSpace(cmd.Args().First())
			if sql == "" {
				return usageErrorf("query 需要一条 SQL 语句")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if cmd.Bool("stream") {
				return streamQuery(ctx, client, sql)
			}
			return runQuery(ctx, client, sql, chclient.Format(cmd.String("format")))
		},
	}
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "探测服务器存活",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if !client.Ping(ctx) {
				return fmt.Errorf("服务器不可达")
			}
			fmt.Println("Ok.")
			return nil
		},
	}
}

func typeCommand() *cli.Command {
	return &cli.Command{
		Name:      "type",
		Usage:     "解析 ClickHouse 类型名并打印语法树",
		ArgsUsage: "<type-name>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := strings.TrimSpace(cmd.Args().First())
			if name == "" {
				return usageErrorf("type 需要一个类型名，如 'Array(UInt64)'")
			}

			node, err := chtype.Parse(name)
			if err != nil {
				return err
			}
			printNode(os.Stdout, node, 0)
			return nil
		},
	}
}

func newClient(cmd *cli.Command) (*chclient.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return chclient.New(cfg)
}

// runQuery 整体执行查询，按制表符分隔打印列头与行。
func runQuery(ctx context.Context, client *chclient.Client, sql string, format chclient.Format) error {
	res, err := client.Execute(ctx, sql, chclient.QueryOptions{Format: format})
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	fmt.Fprintf(os.Stderr, "%d 行，耗时 %.3fs\n", res.Len(), res.Statistics.Elapsed)
	return nil
}

// streamQuery 流式执行查询，每行输出一个 JSON 对象。
func streamQuery(ctx context.Context, client *chclient.Client, sql string) error {
	stream, err := client.StreamExecute(ctx, sql, nil)
	if err != nil {
		return err
	}
	defer stream.Close()

	enc := json.NewEncoder(os.Stdout)
	for stream.Next() {
		if err := enc.Encode(stream.Row()); err != nil {
			return err
		}
	}
	return stream.Err()
}

// printNode 以缩进树形打印类型语法树。
func printNode(w *os.File, node *chtype.Node, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), node.Name)
	for _, arg := range node.Args {
		printNode(w, arg, depth+1)
	}
}
