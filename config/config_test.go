package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey(t *testing.T) {
	existing := map[string]any{
		"store": map[string]any{
			"maxValueBytes": 4194304,
			"redis": map[string]any{
				"keyPrefix": "foodbridge:",
			},
		},
		"freshness": map[string]any{
			"mlServerUrl": "",
			"claude": map[string]any{
				"apiKey": "",
			},
		},
		"secretKey": map[string]any{
			"cookieHash": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "STORE_MAXVALUEBYTES", want: "store.maxValueBytes"},
		{envKey: "STORE_REDIS_KEYPREFIX", want: "store.redis.keyPrefix"},
		{envKey: "FRESHNESS_CLAUDE_APIKEY", want: "freshness.claude.apiKey"},
		{envKey: "FRESHNESS_MLSERVERURL", want: "freshness.mlServerUrl"},
		{envKey: "SECRETKEY_COOKIEHASH", want: "secretKey.cookieHash"},
		{envKey: "NEW__FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, defaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, defaultMaxValueBytes, cfg.Store.MaxValueBytes)
	assert.Equal(t, defaultTransactionRetries, cfg.Store.TransactionRetries)
	assert.Equal(t, 10*time.Second, cfg.Lifecycle.ShutdownTimeout)
	assert.Zero(t, cfg.Lifecycle.ExpirySweepInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	yamlBody := `
env:
  env: production
http:
  port: 8080
store:
  backend: sqlite
  maxValueBytes: 1024
  retention:
    foodbridge-images:
      maxRecords: 12
lifecycle:
  expirySweepInterval: 90s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loadtest.yaml"), []byte(yamlBody), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, dir)
	require.NoError(t, err)

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")

	cfg, err := LoadWithEnv[Config]("loadtest", rel)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 1024, cfg.Store.MaxValueBytes)
	assert.Equal(t, 12, cfg.Store.Retention["foodbridge-images"].MaxRecords)
	assert.Equal(t, 90*time.Second, cfg.Lifecycle.ExpirySweepInterval)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	_, err := LoadWithEnv[Config]("does-not-exist")
	require.Error(t, err)
}
