package chconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/chkit/pkg/chclient"
)

const yamlConfig = `
host: ch.example.com
port: 9000
database: metrics
username: writer
pool_size: 20
connect_timeout: 3s
compression: true
settings:
  max_threads: "8"
retry:
  max_attempts: 5
  initial_backoff: 50ms
  jitter: full
`

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeTempConfig(t, "ch.yaml", yamlConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ch.example.com", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "metrics", cfg.Database)
	assert.Equal(t, "writer", cfg.Username)
	assert.Equal(t, 20, cfg.PoolSize)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.Compression)
	assert.Equal(t, "8", cfg.Settings["max_threads"])
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, "full", cfg.Retry.Jitter)

	// 文件未覆盖的字段保持默认值。
	assert.Equal(t, chclient.DefaultConfig().ReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, "http", cfg.Scheme)
}

func TestLoad_JSON(t *testing.T) {
	path := writeTempConfig(t, "ch.json",
		`{"host": "ch.internal", "pool_size": 4, "retry": {"max_attempts": 1}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ch.internal", cfg.Host)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Load("config.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	path := writeTempConfig(t, "bad.yaml", "host: [unclosed")
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := writeTempConfig(t, "zero-pool.yaml", "pool_size: 0")
	_, err := Load(path)
	assert.ErrorIs(t, err, chclient.ErrConfig, "加载后统一校验，不产出半成品配置")
}

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(`{"host": "h1"}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "h1", cfg.Host)

	// 空数据返回默认配置。
	cfg, err = LoadBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, chclient.DefaultConfig().Host, cfg.Host)

	_, err = LoadBytes([]byte("x"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
