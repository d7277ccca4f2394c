package chclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/chkit/pkg/chmetrics"
	"github.com/omeyang/chkit/pkg/chtype"
)

func TestWithObserver_SpansRecorded(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	obs, err := chmetrics.NewOTelObserver(chmetrics.WithTracerProvider(tp))
	require.NoError(t, err)

	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":[],"data":[]}`))
	}, WithObserver(obs))

	_, err = cli.Execute(context.Background(), "SELECT 1", QueryOptions{})
	require.NoError(t, err)
	require.NoError(t, cli.Insert(context.Background(),
		"t", []map[string]any{{"a": 1}}, InsertOptions{}))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	names := []string{spans[0].Name, spans[1].Name}
	assert.Contains(t, names, "execute")
	assert.Contains(t, names, "insert")
}

func TestWithSlowQuery(t *testing.T) {
	var infos []SlowQueryInfo
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		_, _ = w.Write([]byte(`{"meta":[],"data":[]}`))
	}, WithSlowQuery(10*time.Millisecond, func(info SlowQueryInfo) {
		infos = append(infos, info)
	}))

	_, err := cli.Execute(context.Background(), "SELECT sleepy", QueryOptions{})
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, "SELECT sleepy", infos[0].SQL)
	assert.GreaterOrEqual(t, infos[0].Duration, 10*time.Millisecond)
}

func TestWithRegistry_CustomType(t *testing.T) {
	reg := chtype.NewRegistry()
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":[],"data":[]}`))
	}, WithRegistry(reg))

	assert.Same(t, reg, cli.Registry(), "客户端持有注入的注册表")
}
