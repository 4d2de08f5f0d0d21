package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
server:
  host: "0.0.0.0"
  port: 9090

registrations:
  email_as_username: true

fields:
  email:
    searchable: true
    allowed_domains: ["example.com"]
    forbidden_words: ["admin"]

search:
  reindex_schedule: "@every 1h"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.True(t, cfg.Registrations.EmailAsUsername)
	assert.True(t, cfg.Fields.Email.Searchable)
	assert.Equal(t, []string{"example.com"}, cfg.Fields.Email.AllowedDomains)
	assert.Equal(t, []string{"admin"}, cfg.Fields.Email.ForbiddenWords)
	assert.Equal(t, "@every 1h", cfg.Search.ReindexSchedule)

	// defaults fill the rest
	assert.Equal(t, "./data/social.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Fields.Username.MinLength)
	assert.Equal(t, 50, cfg.Search.MaxResults)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "social_session", cfg.Auth.CookieName)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [1, 2"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("SOCIAL_DB_PATH", "/tmp/x.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
}
