package chclient

import (
	"fmt"
	"time"
)

// ============================================================================
// 配置
// ============================================================================

// RetryConfig 描述重试策略。
type RetryConfig struct {
	// MaxAttempts 是含首次在内的总尝试次数，至少为 1。
	MaxAttempts int `koanf:"max_attempts"`

	// InitialBackoff 是首次重试前的基础等待时间。
	InitialBackoff time.Duration `koanf:"initial_backoff"`

	// MaxBackoff 是单次等待的上限。
	MaxBackoff time.Duration `koanf:"max_backoff"`

	// Multiplier 是退避倍率，至少为 1.0。
	Multiplier float64 `koanf:"multiplier"`

	// Jitter 是抖动策略："none"、"full" 或 "equal"。
	Jitter string `koanf:"jitter"`
}

// Config 是客户端的全部连接/池/重试参数。
// 构造时一次性创建并校验，之后只读。
type Config struct {
	// Host 是 ClickHouse 服务器主机名。
	Host string `koanf:"host"`

	// Port 是 HTTP 接口端口，默认 8123。
	Port int `koanf:"port"`

	// Scheme 是 "http" 或 "https"。
	Scheme string `koanf:"scheme"`

	// Database 是默认数据库，作为 database 查询参数随每个请求发送。
	Database string `koanf:"database"`

	// Username 与 Password 通过 HTTP Basic Auth 传递。
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// ConnectTimeout 是建连超时。
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// ReadTimeout 是单次请求的整体超时。
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// PoolSize 是连接池容量上限。
	PoolSize int `koanf:"pool_size"`

	// PoolTimeout 是等待空闲连接的超时。
	PoolTimeout time.Duration `koanf:"pool_timeout"`

	// MaxIdleTime 是连接的最大空闲时长，超过即被视为陈旧。
	MaxIdleTime time.Duration `koanf:"max_idle_time"`

	// Compression 为 true 时在查询串附加 enable_http_compression=1。
	Compression bool `koanf:"compression"`

	// Settings 是随每个请求发送的默认 ClickHouse 设置，
	// 可被单次调用的设置覆盖。
	Settings map[string]string `koanf:"settings"`

	// Retry 是重试策略。
	Retry RetryConfig `koanf:"retry"`
}

// DefaultConfig 返回可直接使用的本机默认配置。
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8123,
		Scheme:         "http",
		Database:       "default",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		PoolSize:       10,
		PoolTimeout:    10 * time.Second,
		MaxIdleTime:    5 * time.Minute,
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
			Jitter:         "equal",
		},
	}
}

// Validate 校验配置，fail-fast：任何非法组合立即返回包装 ErrConfig 的错误。
func (c Config) Validate() error {
	if c.Host == "" {
		return configError("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return configError("port %d out of range", c.Port)
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return configError("scheme %q must be http or https", c.Scheme)
	}
	if c.PoolSize <= 0 {
		return configError("pool size %d must be positive", c.PoolSize)
	}
	if c.ConnectTimeout <= 0 {
		return configError("connect timeout must be positive")
	}
	if c.ReadTimeout <= 0 {
		return configError("read timeout must be positive")
	}
	if c.PoolTimeout <= 0 {
		return configError("pool timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return configError("retry max attempts %d must be at least 1", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxAttempts > 1 {
		if c.Retry.InitialBackoff <= 0 {
			return configError("retry initial backoff must be positive")
		}
		if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
			return configError("retry max backoff must be >= initial backoff")
		}
		if c.Retry.Multiplier < 1 {
			return configError("retry multiplier %v must be at least 1", c.Retry.Multiplier)
		}
	}
	switch c.Retry.Jitter {
	case "", "none", "full", "equal":
	default:
		return configError("retry jitter %q must be none, full or equal", c.Retry.Jitter)
	}
	return nil
}

// baseURL 返回连接端点，如 "http://ch.example.com:8123"。
func (c Config) baseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}
