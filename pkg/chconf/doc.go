// Package chconf 从 YAML/JSON 配置文件加载 chclient.Config。
//
// 加载顺序：以 chclient.DefaultConfig() 为底，文件中出现的键逐项覆盖，
// 最后统一执行 Config.Validate()。文件里没写的字段保持默认值，
// 校验失败的文件不会产出半成品配置。
//
// # 使用示例
//
//	cfg, err := chconf.Load("clickhouse.yaml")
//	if err != nil {
//		return err
//	}
//	cli, err := chclient.New(cfg)
//
// 配置文件示例（clickhouse.yaml）：
//
//	host: ch.example.com
//	port: 8123
//	database: metrics
//	pool_size: 20
//	retry:
//	  max_attempts: 5
//	  jitter: full
package chconf
