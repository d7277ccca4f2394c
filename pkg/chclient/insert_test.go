package chclient

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P8：空行集在任何网络调用之前被拒绝。
func TestInsert_EmptyRows(t *testing.T) {
	var hits atomic.Int64
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	err := cli.Insert(context.Background(), "events", nil, InsertOptions{})
	assert.ErrorIs(t, err, ErrEmptyRows)

	err = cli.Insert(context.Background(), "events", []map[string]any{}, InsertOptions{})
	assert.ErrorIs(t, err, ErrEmptyRows)

	assert.Zero(t, hits.Load(), "不发起任何网络调用")
}

// Scenario C：3 行、列从首行推断，请求体是换行连接的 JSON 对象。
func TestInsert_Body(t *testing.T) {
	var gotBody, gotQuery string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotQuery = r.URL.Query().Get("query")
	})

	rows := []map[string]any{
		{"id": 1, "name": "a"},
		{"id": 2, "name": "b"},
		{"id": 3, "name": "c"},
	}
	require.NoError(t, cli.Insert(context.Background(), "events", rows, InsertOptions{}))

	assert.Equal(t, "INSERT INTO events (id, name) FORMAT JSONEachRow", gotQuery)

	lines := strings.Split(gotBody, "\n")
	require.Len(t, lines, 3, "3 行由两个换行符连接")
	assert.JSONEq(t, `{"id":1,"name":"a"}`, lines[0])
	assert.JSONEq(t, `{"id":2,"name":"b"}`, lines[1])
	assert.JSONEq(t, `{"id":3,"name":"c"}`, lines[2])
}

func TestInsert_ExplicitColumns(t *testing.T) {
	var gotBody, gotQuery string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotQuery = r.URL.Query().Get("query")
	})

	rows := []map[string]any{{"id": 1, "name": "a", "extra": true}}
	require.NoError(t, cli.Insert(context.Background(), "events", rows,
		InsertOptions{Columns: []string{"id", "name"}}))

	assert.Equal(t, "INSERT INTO events (id, name) FORMAT JSONEachRow", gotQuery)
	assert.JSONEq(t, `{"id":1,"name":"a"}`, gotBody, "未选中的列不进请求体")
}

func TestInsert_ValueSerialization(t *testing.T) {
	var gotBody string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	})

	ts := time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	rows := []map[string]any{{
		"at":     ts,
		"ms":     ts.Add(123 * time.Millisecond),
		"uid":    id,
		"amount": big.NewInt(123456789012345678),
		"none":   nil,
	}}
	require.NoError(t, cli.Insert(context.Background(), "events", rows, InsertOptions{}))

	assert.Contains(t, gotBody, `"at":"2026-08-30 12:30:45"`)
	assert.Contains(t, gotBody, `"ms":"2026-08-30 12:30:45.123"`)
	assert.Contains(t, gotBody, `"uid":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`)
	assert.Contains(t, gotBody, `"amount":123456789012345678`)
	assert.Contains(t, gotBody, `"none":null`)
}

// 非幂等操作：服务端 5xx 无法判定写入是否已生效，不得重试。
func TestInsert_NoRetryAfterExecution(t *testing.T) {
	var attempts atomic.Int64
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Code: 252. DB::Exception: Too many parts"))
	})

	err := cli.Insert(context.Background(), "events",
		[]map[string]any{{"id": 1}}, InsertOptions{})
	require.Error(t, err)
	assert.Equal(t, int64(1), attempts.Load())
	assert.Equal(t, int64(1), cli.Stats().InsertErrors)
}

// 建连被拒发生在请求发出之前，非幂等操作也可安全重试。
func TestInsert_RetriesPreExecutionFailure(t *testing.T) {
	srv := newCHServer(t, func(w http.ResponseWriter, r *http.Request) {})
	cfg := configFor(t, srv)
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.PoolTimeout = 200 * time.Millisecond
	cli, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(cli.Close)
	srv.Close()

	err = cli.Insert(context.Background(), "events",
		[]map[string]any{{"id": 1}}, InsertOptions{})
	require.Error(t, err, "服务器不可达时写入最终失败，但执行前错误已被重试")
}

func TestInsert_ErrorNeverSwallowed(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Code: 60. DB::Exception: Table default.events doesn't exist."))
	})

	err := cli.Insert(context.Background(), "events",
		[]map[string]any{{"id": 1}}, InsertOptions{})
	assert.ErrorIs(t, err, ErrUnknownTable)
}
