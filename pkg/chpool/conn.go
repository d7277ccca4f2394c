package chpool

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ============================================================================
// ConnConfig
// ============================================================================

// ConnConfig 描述单条连接的端点与超时参数。
type ConnConfig struct {
	// BaseURL 是 ClickHouse HTTP 接口地址，如 "http://localhost:8123"。
	BaseURL string

	// Username 与 Password 通过 HTTP Basic Auth 传递。
	Username string
	Password string

	// ConnectTimeout 是建连（含 TLS 握手）的超时时间。
	ConnectTimeout time.Duration

	// ReadTimeout 是单次请求从发出到读完响应体的总超时时间。
	// 流式请求不受此限制，由调用方 context 控制。
	ReadTimeout time.Duration

	// TLS 为非 nil 时对 https 端点生效。
	TLS *tls.Config
}

// ============================================================================
// Conn
// ============================================================================

// Conn 是到 ClickHouse 的一条 HTTP keep-alive 通道。
//
// Conn 不做内部加锁：连接池的 checkout/checkin 协议保证任意时刻
// 最多一个调用方持有它。
type Conn struct {
	cfg       ConnConfig
	base      *url.URL
	client    *http.Client // 带 ReadTimeout 的常规请求通道
	streaming *http.Client // 无整体超时的流式通道
	healthy   bool
	createdAt time.Time
	lastUsed  time.Time
}

// Response 是一次非流式请求的完整结果，响应体已全部读入内存。
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// StreamResponse 是一次流式请求的结果，Body 由调用方负责关闭。
type StreamResponse struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// NewConn 构造未建连的 Conn。每个 Conn 持有专属 http.Client，
// Transport 只保留一个空闲连接，使 Conn 与底层 TCP 连接一一对应。
func NewConn(cfg ConnConfig) (*Conn, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("chpool: invalid base url %q: %w", cfg.BaseURL, err)
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSClientConfig:     cfg.TLS,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		MaxConnsPerHost:     1,
		IdleConnTimeout:     90 * time.Second,
	}

	now := time.Now()
	return &Conn{
		cfg:  cfg,
		base: base,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		streaming: &http.Client{
			Transport: transport,
		},
		createdAt: now,
		lastUsed:  now,
	}, nil
}

// Connect 建立连接并验证服务器可达（GET /ping）。
// 失败返回 *TransportError，包装 ErrConnectTimeout 或 ErrNotEstablished，
// 两者均为执行前错误。
func (c *Conn) Connect(ctx context.Context) error {
	if c == nil {
		return ErrNotEstablished
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/ping"), nil)
	if err != nil {
		return &TransportError{Op: "connect", Err: err, BeforeSend: true}
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		sentinel := ErrNotEstablished
		if isTimeout(err) {
			sentinel = ErrConnectTimeout
		}
		return &TransportError{
			Op:         "connect",
			Err:        fmt.Errorf("%w: %w", sentinel, err),
			BeforeSend: true,
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:         "connect",
			Err:        fmt.Errorf("%w: ping returned HTTP %d", ErrNotEstablished, resp.StatusCode),
			BeforeSend: true,
		}
	}

	c.healthy = true
	c.touch()
	return nil
}

// Post 发送一次非流式请求并读完整个响应体。
// 传输层失败返回 *TransportError 并把连接标记为不健康；
// HTTP 状态码不在此处解读，由调用方负责。
func (c *Conn) Post(ctx context.Context, path string, query url.Values, headers map[string]string, body io.Reader) (*Response, error) {
	if c == nil || !c.healthy {
		return nil, ErrNotEstablished
	}

	req, err := c.newRequest(ctx, path, query, headers, body)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err, BeforeSend: true}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.healthy = false
		return nil, &TransportError{Op: "post", Err: err, BeforeSend: isBeforeSend(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.healthy = false
		return nil, &TransportError{Op: "post", Err: err, BeforeSend: false}
	}

	c.touch()
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// PostStream 发送一次流式请求，返回未读取的响应体。
// 响应体的生命周期由调用方管理，Close 前连接不应归还。
func (c *Conn) PostStream(ctx context.Context, path string, query url.Values, headers map[string]string, body io.Reader) (*StreamResponse, error) {
	if c == nil || !c.healthy {
		return nil, ErrNotEstablished
	}

	req, err := c.newRequest(ctx, path, query, headers, body)
	if err != nil {
		return nil, &TransportError{Op: "stream", Err: err, BeforeSend: true}
	}

	resp, err := c.streaming.Do(req)
	if err != nil {
		c.healthy = false
		return nil, &TransportError{Op: "stream", Err: err, BeforeSend: isBeforeSend(err)}
	}

	c.touch()
	return &StreamResponse{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// Ping 检查服务器是否可达。只返回布尔结果，从不返回错误。
func (c *Conn) Ping(ctx context.Context) bool {
	if c == nil || !c.healthy {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/ping"), nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.healthy = false
		return false
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	ok := resp.StatusCode == http.StatusOK && strings.TrimSpace(string(data)) == "Ok."
	if ok {
		c.touch()
	}
	return ok
}

// Healthy 报告连接是否可用。
func (c *Conn) Healthy() bool {
	return c != nil && c.healthy
}

// Stale 报告连接空闲时长是否超过 maxIdle。maxIdle <= 0 表示永不陈旧。
func (c *Conn) Stale(maxIdle time.Duration) bool {
	if c == nil {
		return true
	}
	return maxIdle > 0 && time.Since(c.lastUsed) > maxIdle
}

// MarkUnhealthy 将连接标记为不健康，归还时会被连接池销毁。
// 调用方在观察到协议级异常（如响应体截断）时使用。
func (c *Conn) MarkUnhealthy() {
	if c != nil {
		c.healthy = false
	}
}

// Close 断开连接并释放底层资源。幂等，可多次调用。
func (c *Conn) Close() {
	if c == nil {
		return
	}
	c.healthy = false
	if t, ok := c.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// Age 返回连接自创建以来的时长。
func (c *Conn) Age() time.Duration {
	if c == nil {
		return 0
	}
	return time.Since(c.createdAt)
}

// IdleTime 返回连接自上次使用以来的时长。
func (c *Conn) IdleTime() time.Duration {
	if c == nil {
		return 0
	}
	return time.Since(c.lastUsed)
}

// ============================================================================
// 内部方法
// ============================================================================

func (c *Conn) endpoint(path string) string {
	u := *c.base
	u.Path = path
	return u.String()
}

func (c *Conn) newRequest(ctx context.Context, path string, query url.Values, headers map[string]string, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Conn) authorize(req *http.Request) {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

func (c *Conn) touch() {
	c.lastUsed = time.Now()
}

// isTimeout 判断传输错误是否属于超时。
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isBeforeSend 判断传输错误是否发生在请求发出之前。
// 拨号与 DNS 解析阶段的失败保证服务器未收到请求。
func isBeforeSend(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
