package chpool

import (
	"log/slog"
	"time"
)

// ============================================================================
// 默认值
// ============================================================================

const (
	// DefaultPoolSize 是连接池的默认容量。
	DefaultPoolSize = 10

	// DefaultCheckoutTimeout 是等待空闲连接的默认超时。
	DefaultCheckoutTimeout = 10 * time.Second

	// DefaultMaxIdle 是连接的默认最大空闲时长，超过即视为陈旧。
	DefaultMaxIdle = 5 * time.Minute
)

// ============================================================================
// 连接池选项
// ============================================================================

type poolOptions struct {
	size            int
	checkoutTimeout time.Duration
	maxIdle         time.Duration
	logger          *slog.Logger
}

func defaultPoolOptions() poolOptions {
	return poolOptions{
		size:            DefaultPoolSize,
		checkoutTimeout: DefaultCheckoutTimeout,
		maxIdle:         DefaultMaxIdle,
		logger:          slog.Default(),
	}
}

// PoolOption 配置连接池行为。
type PoolOption func(*poolOptions)

// WithPoolSize 设置连接池容量上限。size <= 0 时 NewPool 返回 ErrInvalidSize。
func WithPoolSize(size int) PoolOption {
	return func(o *poolOptions) {
		o.size = size
	}
}

// WithCheckoutTimeout 设置等待空闲连接的最长时间。
func WithCheckoutTimeout(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		if d > 0 {
			o.checkoutTimeout = d
		}
	}
}

// WithMaxIdle 设置连接的最大空闲时长。d <= 0 表示永不陈旧。
func WithMaxIdle(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.maxIdle = d
	}
}

// WithLogger 设置结构化日志器，默认使用 slog.Default()。
func WithLogger(logger *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
