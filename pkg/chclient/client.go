package chclient

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/omeyang/chkit/internal/opstat"
	"github.com/omeyang/chkit/pkg/chmetrics"
	"github.com/omeyang/chkit/pkg/chpool"
	"github.com/omeyang/chkit/pkg/chretry"
	"github.com/omeyang/chkit/pkg/chtype"
)

// executor 抽象重试执行器，Retryer 与 BreakerRetryer 均满足。
type executor interface {
	Do(ctx context.Context, idempotent bool, fn chretry.AttemptFunc) error
}

// Client 是 ClickHouse HTTP 客户端。
// 可在多个 goroutine 间共享，所有操作并发安全。
type Client struct {
	cfg      Config
	pool     *chpool.Pool
	exec     executor
	registry *chtype.Registry
	logger   *slog.Logger
	observer chmetrics.Observer
	slow     *opstat.SlowQueryDetector[SlowQueryInfo]

	queries opstat.QueryCounter
	inserts opstat.InsertCounter
	pings   opstat.HealthCounter

	closed atomic.Bool
}

// New 构造客户端。配置立即校验，连接按需懒建，构造时不做网络 I/O。
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = chtype.NewRegistry()
	}

	connCfg := chpool.ConnConfig{
		BaseURL:        cfg.baseURL(),
		Username:       cfg.Username,
		Password:       cfg.Password,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	}
	pool, err := chpool.NewPool(
		func() (*chpool.Conn, error) { return chpool.NewConn(connCfg) },
		chpool.WithPoolSize(cfg.PoolSize),
		chpool.WithCheckoutTimeout(cfg.PoolTimeout),
		chpool.WithMaxIdle(cfg.MaxIdleTime),
		chpool.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}

	retryer := chretry.New(
		chretry.WithMaxAttempts(cfg.Retry.MaxAttempts),
		chretry.WithBackoff(chretry.NewExponentialBackoff(
			chretry.WithInitialDelay(cfg.Retry.InitialBackoff),
			chretry.WithMaxDelay(cfg.Retry.MaxBackoff),
			chretry.WithMultiplier(cfg.Retry.Multiplier),
			chretry.WithJitterStrategy(jitterStrategy(cfg.Retry.Jitter)),
		)),
	)

	var exec executor = retryer
	if o.breaker != nil {
		br, err := chretry.NewBreakerRetryer(retryer, *o.breaker)
		if err != nil {
			return nil, err
		}
		exec = br
	}

	c := &Client{
		cfg:      cfg,
		pool:     pool,
		exec:     exec,
		registry: o.registry,
		logger:   o.logger,
		observer: o.observer,
	}
	if o.slowHook != nil && o.slowThreshold > 0 {
		hook := o.slowHook
		c.slow = opstat.NewSlowQueryDetector(o.slowThreshold,
			func(_ context.Context, info SlowQueryInfo) { hook(info) })
	}
	return c, nil
}

// Registry 返回客户端持有的类型注册表，供适配层做列转换。
func (c *Client) Registry() *chtype.Registry {
	return c.registry
}

// Ping 探测服务器存活。任何连接或超时异常都转换为 false，从不返回错误。
func (c *Client) Ping(ctx context.Context) bool {
	if c == nil || c.closed.Load() {
		return false
	}
	c.pings.IncPing()

	ctx, cancel := opstat.HealthContext(ctx, opstat.DefaultHealthTimeout)
	defer cancel()

	err := c.pool.WithConn(ctx, func(conn *chpool.Conn) error {
		if !conn.Ping(ctx) {
			return errors.New("ping failed")
		}
		return nil
	})
	if err != nil {
		c.pings.IncPingError()
		return false
	}
	return true
}

// Close 关闭客户端并断开池中全部连接。幂等。
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.pool.Shutdown()
}

// ============================================================================
// 内部请求路径
// ============================================================================

// queryParams 构造请求查询串：database、合并后的设置、压缩开关与
// 本次尝试的 query_id。
func (c *Client) queryParams(settings map[string]string, queryID string) url.Values {
	params := url.Values{}
	if c.cfg.Database != "" {
		params.Set("database", c.cfg.Database)
	}
	for k, v := range c.cfg.Settings {
		params.Set(k, v)
	}
	for k, v := range settings {
		params.Set(k, v)
	}
	if c.cfg.Compression {
		params.Set("enable_http_compression", "1")
	}
	if queryID != "" {
		params.Set("query_id", queryID)
	}
	return params
}

// post 通过池化连接发送一次请求并整体读回响应。
func (c *Client) post(ctx context.Context, params url.Values, body []byte) (*chpool.Response, error) {
	var resp *chpool.Response
	err := c.pool.WithConn(ctx, func(conn *chpool.Conn) error {
		r, err := conn.Post(ctx, "/", params, nil, bytes.NewReader(body))
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// checkStatus 实施"先查状态码"纪律：非 200 时响应体按错误文本解析，
// 绝不进入结果解析路径。
func checkStatus(resp *chpool.Response, sql string) error {
	if resp.Status != http.StatusOK {
		return newQueryError(resp.Status, resp.Body, sql)
	}
	return nil
}

func jitterStrategy(name string) chretry.Jitter {
	switch name {
	case "none":
		return chretry.JitterNone
	case "full":
		return chretry.JitterFull
	default:
		return chretry.JitterEqual
	}
}
