package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: trade
    user: trade
  redis:
    address: localhost:6379
workers:
  assistant-handle-turn:
    enabled: true
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 5, cfg.Assistant.CandidateLimit)
	assert.Equal(t, 10, cfg.Assistant.HistoryLimit)
	assert.Equal(t, 600000, cfg.Assistant.SessionTTL)
	assert.Equal(t, SearchBackendPostgres, cfg.Assistant.SearchBackend)
	assert.Equal(t, "trade_", cfg.Assistant.IndexPrefix)
	assert.Equal(t, ":8080", cfg.Observability.HTTPAddress)

	w := cfg.Workers["assistant-handle-turn"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromFile_AssistantOverrides(t *testing.T) {
	body := baseYAML + `
assistant:
  candidate_limit: 3
  routes:
    dashboard: /home
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Assistant.CandidateLimit)
	assert.Equal(t, "/home", cfg.Assistant.Routes["dashboard"])
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: x\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "elasticsearch backend without addresses",
			body:    baseYAML + "assistant:\n  search_backend: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses is required",
		},
		{
			name:    "unknown backend",
			body:    baseYAML + "assistant:\n  search_backend: solr\n",
			wantErr: "assistant.search_backend must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	w := GetWorkerConfig(cfg, "missing")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
}
