package opstat

import (
	"sync/atomic"
	"time"
)

// =============================================================================
// 统计计数器
// =============================================================================

// QueryCounter 查询计数器。
// 提供原子计数器用于追踪查询与命令的执行状态。
type QueryCounter struct {
	queryCount  atomic.Int64
	queryErrors atomic.Int64
}

// IncQuery 增加查询计数。
func (q *QueryCounter) IncQuery() {
	q.queryCount.Add(1)
}

// IncQueryError 增加查询错误计数。
func (q *QueryCounter) IncQueryError() {
	q.queryErrors.Add(1)
}

// QueryCount 返回查询计数。
func (q *QueryCounter) QueryCount() int64 {
	return q.queryCount.Load()
}

// QueryErrors 返回查询错误计数。
func (q *QueryCounter) QueryErrors() int64 {
	return q.queryErrors.Load()
}

// InsertCounter 写入计数器。
// 按批次与行数两个维度追踪写入量。
type InsertCounter struct {
	batches atomic.Int64
	rows    atomic.Int64
	errors  atomic.Int64
}

// IncBatch 记录一次成功写入及其行数。
func (i *InsertCounter) IncBatch(rows int64) {
	i.batches.Add(1)
	i.rows.Add(rows)
}

// IncError 增加写入错误计数。
func (i *InsertCounter) IncError() {
	i.errors.Add(1)
}

// Batches 返回成功写入的批次数。
func (i *InsertCounter) Batches() int64 {
	return i.batches.Load()
}

// Rows 返回成功写入的总行数。
func (i *InsertCounter) Rows() int64 {
	return i.rows.Load()
}

// Errors 返回写入错误计数。
func (i *InsertCounter) Errors() int64 {
	return i.errors.Load()
}

// HealthCounter 健康检查计数器。
type HealthCounter struct {
	pingCount  atomic.Int64
	pingErrors atomic.Int64
}

// IncPing 增加 ping 计数。
func (h *HealthCounter) IncPing() {
	h.pingCount.Add(1)
}

// IncPingError 增加 ping 失败计数。
func (h *HealthCounter) IncPingError() {
	h.pingErrors.Add(1)
}

// PingCount 返回 ping 计数。
func (h *HealthCounter) PingCount() int64 {
	return h.pingCount.Load()
}

// PingErrors 返回 ping 失败计数。
func (h *HealthCounter) PingErrors() int64 {
	return h.pingErrors.Load()
}

// =============================================================================
// 通用辅助函数
// =============================================================================

// MeasureOperation 测量操作耗时。
// 作为客户端各操作的统一度量入口点，便于未来扩展且不破坏调用方。
func MeasureOperation(start time.Time) time.Duration {
	return time.Since(start)
}
