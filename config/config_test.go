package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYaml(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
mcp_listen: ":9001"
sepay_base_url: "https://sepay.test/userapi"
sepay_api_key: "file-key"
http_timeout: "10s"
currency: "USD"
reconcile_tolerance: "0.01"
tls_domains:
  - api.example.com
tls_cache_dir: "/var/cache/certs"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, ":9001", cfg.MCPListenAddr)
	assert.Equal(t, "https://sepay.test/userapi", cfg.SePayBaseURL)
	assert.Equal(t, "file-key", cfg.SePayAPIKey)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, decimal.RequireFromString("0.01").Equal(cfg.ReconcileTolerance),
		"subunit currencies need a sub-unit tolerance")
	assert.Equal(t, []string{"api.example.com"}, cfg.TLSDomains)
	assert.Equal(t, "/var/cache/certs", cfg.TLSCacheDir)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `sepay_api_key: "k"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, ":8001", cfg.MCPListenAddr)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "VND", cfg.Currency)
	assert.True(t, decimal.NewFromInt(1).Equal(cfg.ReconcileTolerance))
}

func TestLoadRejectsBadTolerance(t *testing.T) {
	path := writeConfig(t, `reconcile_tolerance: "a penny"`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFileAPIKey(t *testing.T) {
	t.Setenv("SEPAY_API_KEY", "env-key")
	path := writeConfig(t, `sepay_api_key: "file-key"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.SePayAPIKey)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	path := writeConfig(t, `http_timeout: "soonish"`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadYaml(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}
