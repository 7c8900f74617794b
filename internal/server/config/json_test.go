package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http": "www.example:8000",
		"database_dsn":       "backoffice.db",
		"fernet_keys":        []string{"primary", "legacy"},
		"s3_bucket":          "bucket",
		"smtp_host":          "smtp.example.com",
		"smtp_port":          465,
		"inpol_timeout":      "20s",
		"nbp_timeout":        3000000000,
		"fx_ttl":             "1h",
		"redis_addr":         "redis:6379",
		"log_backend":        "zap",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:8000", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC, "absent keys keep defaults")
		assert.Equal(t, "backoffice.db", cfg.DatabaseDSN)
		assert.Equal(t, []string{"primary", "legacy"}, cfg.FernetKeys)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
		assert.Equal(t, 465, cfg.SMTPPort)
		assert.Equal(t, 20*time.Second, cfg.InpolTimeout)
		assert.Equal(t, 3*time.Second, cfg.NBPTimeout)
		assert.Equal(t, time.Hour, cfg.FXTTL)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "zap", cfg.LogBackend)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", DatabaseDSN: "x"}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "x", cfg.DatabaseDSN)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-c", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
