package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "manager", cfg.Admin.Username)
	require.Equal(t, 3, cfg.Recommendation.FallbackLevel)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)
	require.False(t, cfg.OIDC.Enabled())
	require.False(t, cfg.Debug())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
server:
  addr: ":9000"
  mode: debug
recommendation:
  fallback_level: 5
session:
  ttl: 2h
log:
  level: warn
`)
	t.Setenv("STRESSLESS_LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/stressless")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.True(t, cfg.Debug())
	require.Equal(t, 5, cfg.Recommendation.FallbackLevel)
	require.Equal(t, 2*time.Hour, cfg.Session.TTL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "postgres://localhost/stressless", cfg.Database.URL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "recommendation:\n  fallback_level: 12\n")
	_, err := Load(path)
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "recommendation:\n  fallback_level: 3\n")

	var level atomic.Int64
	stop, err := Watch(path, zap.NewNop(), func(c *Config) {
		level.Store(int64(c.Recommendation.FallbackLevel))
	})
	require.NoError(t, err)
	defer func() { _ = stop() }()

	writeFile(t, path, "recommendation:\n  fallback_level: 7\n")
	require.Eventually(t, func() bool { return level.Load() == 7 }, 5*time.Second, 50*time.Millisecond)
}
