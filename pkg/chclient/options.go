package chclient

import (
	"log/slog"
	"time"

	"github.com/omeyang/chkit/pkg/chmetrics"
	"github.com/omeyang/chkit/pkg/chretry"
	"github.com/omeyang/chkit/pkg/chtype"
)

// ============================================================================
// 客户端选项
// ============================================================================

type clientOptions struct {
	logger        *slog.Logger
	observer      chmetrics.Observer
	registry      *chtype.Registry
	breaker       *chretry.BreakerSettings
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		logger: slog.Default(),
	}
}

// Option 配置客户端行为。
type Option func(*clientOptions)

// WithLogger 设置结构化日志器，默认使用 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver 注入观测实现，查询/写入的 span 与指标经由它上报。
// 默认不观测。
func WithObserver(obs chmetrics.Observer) Option {
	return func(o *clientOptions) {
		o.observer = obs
	}
}

// WithRegistry 替换默认类型注册表。
// 多个独立配置的客户端各持有自己的注册表，自定义类型注册互不串扰。
func WithRegistry(reg *chtype.Registry) Option {
	return func(o *clientOptions) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithBreaker 在重试器外再套一层熔断器。
func WithBreaker(settings chretry.BreakerSettings) Option {
	return func(o *clientOptions) {
		o.breaker = &settings
	}
}

// SlowQueryInfo 是慢查询钩子收到的现场信息。
type SlowQueryInfo struct {
	SQL      string
	Duration time.Duration
	Rows     int
}

// SlowQueryHook 在操作耗时达到阈值时被同步调用。
type SlowQueryHook func(info SlowQueryInfo)

// WithSlowQuery 启用慢查询检测：耗时达到 threshold 的操作触发 hook。
// threshold <= 0 时禁用。
func WithSlowQuery(threshold time.Duration, hook SlowQueryHook) Option {
	return func(o *clientOptions) {
		o.slowThreshold = threshold
		o.slowHook = hook
	}
}

// ============================================================================
// 单次调用选项
// ============================================================================

// Format 是查询响应格式。
type Format string

const (
	// FormatJSONCompact 行以数组形式返回，列元数据并行给出。
	FormatJSONCompact Format = "JSONCompact"

	// FormatJSON 行以对象形式返回。
	FormatJSON Format = "JSON"
)

// QueryOptions 是 Execute/Command 的单次调用参数。
type QueryOptions struct {
	// Settings 覆盖客户端默认设置，随查询串发送。
	Settings map[string]string

	// Format 是响应格式，默认 FormatJSONCompact。
	Format Format
}

// InsertOptions 是 Insert 的单次调用参数。
type InsertOptions struct {
	// Columns 是写入列。为空时从首行的键推断（按字典序）。
	Columns []string

	// Settings 覆盖客户端默认设置。
	Settings map[string]string
}
