// Package chclient 提供基于 HTTP 接口的 ClickHouse 客户端。
//
// # 核心能力
//
//   - Execute：查询并将响应解析为 Result（JSONCompact / JSON 两种格式）
//   - Command：执行 DDL/维护语句，丢弃响应体
//   - Insert：JSONEachRow 批量写入，空行集在任何网络调用前被拒绝
//   - StreamExecute：专属连接上的流式读取，内存开销 O(批大小)
//   - Ping：存活探测，从不返回错误
//
// # 正确性核心：先检查状态码，再解析响应体
//
// 所有请求路径都遵循同一条纪律：HTTP 状态码非 200 时响应体一律按
// ClickHouse 错误文本解析并抛出 *QueryError，绝不会把错误响应体
// 当作查询结果。服务端失败的 ALTER TABLE DELETE 之类的变更操作
// 因此必然以错误形式浮出，而不是被当作零行成功静默吞掉。
//
// # 重试语义
//
// Execute/Command 作为幂等操作参与全量重试；Insert 非幂等，仅在
// 错误确定发生于请求发出之前时重试。每次尝试携带全新的 query_id，
// 供服务端按 query_id 去重。
//
// # 使用示例
//
//	cfg := chclient.DefaultConfig()
//	cfg.Host = "ch.example.com"
//	cli, err := chclient.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer cli.Close()
//
//	res, err := cli.Execute(ctx, "SELECT id, name FROM users", chclient.QueryOptions{})
package chclient
