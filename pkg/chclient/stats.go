package chclient

import "github.com/omeyang/chkit/pkg/chpool"

// ClientStats 是客户端运行状态的快照，供监控与排障使用。
type ClientStats struct {
	// Queries 与 QueryErrors 统计 Execute/Command 调用。
	Queries     int64
	QueryErrors int64

	// InsertBatches/InsertRows/InsertErrors 统计写入。
	InsertBatches int64
	InsertRows    int64
	InsertErrors  int64

	// Pings 与 PingErrors 统计存活探测。
	Pings      int64
	PingErrors int64

	// Pool 是连接池状态。
	Pool chpool.Stats
}

// Stats 返回当前统计快照。
func (c *Client) Stats() ClientStats {
	if c == nil {
		return ClientStats{}
	}
	return ClientStats{
		Queries:       c.queries.QueryCount(),
		QueryErrors:   c.queries.QueryErrors(),
		InsertBatches: c.inserts.Batches(),
		InsertRows:    c.inserts.Rows(),
		InsertErrors:  c.inserts.Errors(),
		Pings:         c.pings.PingCount(),
		PingErrors:    c.pings.PingErrors(),
		Pool:          c.pool.Stats(),
	}
}
