package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://app@localhost/supply")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Mode)
	assert.False(t, cfg.Server.Development())
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(2), cfg.Database.MinConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.WarningTTL)
	assert.Equal(t, "WH-MAIN", cfg.Warehouse.DefaultCode)
	assert.Equal(t, "Main Warehouse", cfg.Warehouse.DefaultName)
}

func TestLoadOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://app@localhost/supply")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_MODE", "Development")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("DB_MAX_CONNS", "8")
	t.Setenv("DB_MIN_CONNS", "1")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WARNING_CACHE_TTL", "2m")
	t.Setenv("DEFAULT_WAREHOUSE_CODE", "WH-01")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Development())
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
	assert.Equal(t, int32(1), cfg.Database.MinConns)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 2*time.Minute, cfg.Redis.WarningTTL)
	assert.Equal(t, "WH-01", cfg.Warehouse.DefaultCode)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	content := "# local\nDATABASE_URL=postgres://file@localhost/supply\nJWT_SECRET='from-file'\nPORT=7070\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Setenv("PORT", "7171")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file@localhost/supply", cfg.Database.URL)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 7171, cfg.Server.Port)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"JWT_SECRET": "x"}, "DATABASE_URL"},
		{"missing secret", map[string]string{"DATABASE_URL": "postgres://x"}, "JWT_SECRET"},
		{"bad pool", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "x", "DB_MIN_CONNS": "30"}, "pool"},
		{"bad format", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "x", "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
