package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DSN", "memory://")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CLIENT_ID", "exchange-web")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "memory://", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "exchange-web", cfg.Auth.ClientID)
	assert.Equal(t, 10, cfg.Listing.DefaultPageLimit)
	assert.Equal(t, 100, cfg.Listing.MaxPageLimit)
	assert.Equal(t, 0, cfg.Listing.ListAllLimit)
	assert.True(t, cfg.Listing.EmptyPageNotFound)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("EMPTY_PAGE_NOT_FOUND", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LIST_ALL_LIMIT", "250")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Listing.EmptyPageNotFound)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 250, cfg.Listing.ListAllLimit)
	assert.True(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DSN", "JWT_SECRET", "CLIENT_ID"} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("port out of range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("max page limit below default", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DEFAULT_PAGE_LIMIT", "50")
		t.Setenv("MAX_PAGE_LIMIT", "20")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("port: 9090\nmax_by_ids: 42\n"), 0o644))
	t.Setenv("CONFIG_FILE", p)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 42, cfg.Listing.MaxByIDs)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\n"), 0o644))

	t.Setenv("DB_DSN", "from_env")

	cwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}
