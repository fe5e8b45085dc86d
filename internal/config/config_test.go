package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxSizeBytes())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actionplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /var/lib/actionplan/data.db
session:
  timeout: 10m
listing:
  page_size: 8
uploads:
  allowed_types: [pdf]
`), 0o600))

	t.Setenv(PathEnv, path)
	t.Setenv("ACTIONPLAN_SERVER_PORT", "9191")
	t.Setenv("ACTIONPLAN_TRANSPORT_WEBHOOK_SECRET", "s3cret")
	t.Setenv("ACTIONPLAN_STORAGE_OP_TIMEOUT", "3s")
	t.Setenv("ACTIONPLAN_TELEMETRY_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/var/lib/actionplan/data.db", cfg.DB.Path)
	require.Equal(t, 10*time.Minute, cfg.Session.Timeout)
	require.Equal(t, 8, cfg.Listing.PageSize)
	require.Equal(t, []string{"pdf"}, cfg.Uploads.AllowedTypes)
	require.Equal(t, "s3cret", cfg.Transport.WebhookSecret)
	require.Equal(t, 3*time.Second, cfg.Storage.OpTimeout)
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(PathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"page size", func(c *Config) { c.Listing.PageSize = 0 }},
		{"session timeout", func(c *Config) { c.Session.Timeout = 0 }},
		{"op timeout", func(c *Config) { c.Storage.OpTimeout = -time.Second }},
		{"upload size", func(c *Config) { c.Uploads.MaxSizeMB = 0 }},
		{"transport mode", func(c *Config) { c.Transport.Mode = "grpc" }},
		{"stdio handle", func(c *Config) { c.Transport.Mode = TransportStdio; c.Transport.StdioHandle = "" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, Default().Validate())
}
