package chclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

// newCHServer 启动一个模拟 ClickHouse HTTP 接口的测试服务器，
// /ping 自动应答，其余请求交给 handler。
func newCHServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" && r.Method == http.MethodGet {
			_, _ = w.Write([]byte("Ok.\n"))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// configFor 生成指向测试服务器的配置，退避压到毫秒级加速测试。
func configFor(t *testing.T, srv *httptest.Server) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 10 * time.Millisecond
	cfg.Retry.Jitter = "none"
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := newCHServer(t, handler)
	cli, err := New(configFor(t, srv), opts...)
	require.NoError(t, err)
	t.Cleanup(cli.Close)
	return cli
}

// ============================================================================
// 构造与生命周期
// ============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestClient_Ping(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.True(t, cli.Ping(context.Background()))

	stats := cli.Stats()
	assert.Equal(t, int64(1), stats.Pings)
	assert.Zero(t, stats.PingErrors)
}

func TestClient_Ping_ServerDown(t *testing.T) {
	srv := newCHServer(t, func(w http.ResponseWriter, r *http.Request) {})
	cfg := configFor(t, srv)
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.PoolTimeout = 200 * time.Millisecond
	cli, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(cli.Close)

	srv.Close()
	assert.False(t, cli.Ping(context.Background()), "连接失败转换为 false 而非错误")
	assert.Equal(t, int64(1), cli.Stats().PingErrors)
}

func TestClient_Close(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	cli.Close()
	cli.Close() // 幂等

	_, err := cli.Execute(context.Background(), "SELECT 1", QueryOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, cli.Command(context.Background(), "OPTIMIZE TABLE t", QueryOptions{}), ErrClosed)
	assert.ErrorIs(t, cli.Insert(context.Background(), "t", []map[string]any{{"a": 1}}, InsertOptions{}), ErrClosed)
	_, err = cli.StreamExecute(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, cli.Ping(context.Background()))
}

func TestClient_QueryParams(t *testing.T) {
	var got url.Values
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"meta":[],"data":[]}`))
	})
	cli.cfg.Database = "metrics"
	cli.cfg.Compression = true
	cli.cfg.Settings = map[string]string{"max_threads": "4", "readonly": "1"}

	_, err := cli.Execute(context.Background(), "SELECT 1",
		QueryOptions{Settings: map[string]string{"readonly": "0"}})
	require.NoError(t, err)

	assert.Equal(t, "metrics", got.Get("database"))
	assert.Equal(t, "1", got.Get("enable_http_compression"))
	assert.Equal(t, "4", got.Get("max_threads"))
	assert.Equal(t, "0", got.Get("readonly"), "单次设置覆盖默认设置")
	assert.NotEmpty(t, got.Get("query_id"))
}

func TestClient_StatsSnapshot(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":[],"data":[]}`))
	})

	_, err := cli.Execute(context.Background(), "SELECT 1", QueryOptions{})
	require.NoError(t, err)
	require.NoError(t, cli.Insert(context.Background(), "t",
		[]map[string]any{{"a": 1}, {"a": 2}}, InsertOptions{}))

	stats := cli.Stats()
	assert.Equal(t, int64(1), stats.Queries)
	assert.Zero(t, stats.QueryErrors)
	assert.Equal(t, int64(1), stats.InsertBatches)
	assert.Equal(t, int64(2), stats.InsertRows)
	assert.Equal(t, cli.cfg.PoolSize, stats.Pool.Size)
}

func TestClient_NilSafety(t *testing.T) {
	var cli *Client
	assert.False(t, cli.Ping(context.Background()))
	cli.Close()
	assert.Equal(t, ClientStats{}, cli.Stats())
	_, err := cli.Execute(context.Background(), "SELECT 1", QueryOptions{})
	assert.ErrorIs(t, err, ErrClosed)
}
