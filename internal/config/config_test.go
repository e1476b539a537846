package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
server:
  port: 9090
  restart_delay: 500ms

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  name: educode_test
  user: edu

backend:
  base_url: http://backend.local:9090/
  timeout: 3s
  cache_ttl: 1m

llm:
  base_url: https://llm.example.com/v1/stream
  model: demo-model
  api_key: Bearer sk-test
  chunk_delay: 10ms

chat:
  settle_delay: 250ms
  label_max: 12
  regroup_cron: "30 0 * * *"

log:
  level: debug
  format: json
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.RestartDelay)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "educode_test", cfg.Database.Name)
	assert.Equal(t, "edu", cfg.Database.User)
	assert.Equal(t, "http://backend.local:9090", cfg.Backend.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, time.Minute, cfg.Backend.CacheTTL)
	assert.Equal(t, "https://llm.example.com/v1/stream", cfg.LLM.BaseURL)
	assert.Equal(t, "demo-model", cfg.LLM.Model)
	assert.Equal(t, "Bearer sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 10*time.Millisecond, cfg.LLM.ChunkDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.SettleDelay)
	assert.Equal(t, 12, cfg.Chat.LabelMax)
	assert.Equal(t, "30 0 * * *", cfg.Chat.RegroupCron)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParse_Empty_AppliesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultRestartDelay, cfg.Server.RestartDelay)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.Database.Path)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "http://localhost:8080/api/chat", cfg.LLM.BaseURL)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultSettleDelay, cfg.Chat.SettleDelay)
	assert.Equal(t, DefaultCacheTTL, cfg.Backend.CacheTTL)
	assert.Equal(t, DefaultChunkDelay, cfg.LLM.ChunkDelay)
	assert.Equal(t, DefaultLabelMax, cfg.Chat.LabelMax)
	assert.Equal(t, DefaultRegroupCron, cfg.Chat.RegroupCron)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, DefaultMySQLPort, cfg.Database.Port)
	assert.Equal(t, "root", cfg.Database.User)
	assert.Equal(t, "educode", cfg.Database.Name)
	assert.Empty(t, cfg.Database.Path)
}

func TestParse_BackendURLDerivedFromPort(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 7000\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:7000", cfg.Backend.BaseURL)
	assert.Equal(t, "http://localhost:7000/api/chat", cfg.LLM.BaseURL)
}

func TestParse_InvalidDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: oracle\nlog:\n  format: xml\nchat:\n  label_max: -1\n"))
	require.Error(t, err)
	for _, want := range []string{"database.driver", "log.format", "chat.label_max"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestParse_ExplicitZeroDurationsKept(t *testing.T) {
	cfg, err := Parse([]byte("chat:\n  settle_delay: 0s\nbackend:\n  cache_ttl: 0s\nllm:\n  chunk_delay: 0s\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Chat.SettleDelay)
	assert.Equal(t, time.Duration(0), cfg.Backend.CacheTTL)
	assert.Equal(t, time.Duration(0), cfg.LLM.ChunkDelay)
}

func TestParse_AbsentDurationsDefaulted(t *testing.T) {
	cfg, err := Parse([]byte("chat:\n  label_max: 8\nbackend:\n  timeout: 1s\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettleDelay, cfg.Chat.SettleDelay)
	assert.Equal(t, DefaultCacheTTL, cfg.Backend.CacheTTL)
	assert.Equal(t, DefaultChunkDelay, cfg.LLM.ChunkDelay)
}

func TestParse_NegativeSettleDelay(t *testing.T) {
	_, err := Parse([]byte("chat:\n  settle_delay: -1s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settle_delay")
}

func TestParse_InvalidRegroupCron(t *testing.T) {
	_, err := Parse([]byte("chat:\n  regroup_cron: \"every night\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.regroup_cron")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [port"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "educode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_FileNotFound_UsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoad_UnreadablePath(t *testing.T) {
	// A directory cannot be read as a file.
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}
