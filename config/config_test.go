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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"

[detect]
lowercase_only = true

[generation]
api_key = "sk-test"
model = "gpt-4o"
timeout_seconds = 10

[store]
backend = "memory"
degrade_to_defaults = true

[quota]
daily_limit = 50

[[platforms]]
type = "console"

[[platforms]]
type = "telegram"

[platforms.options]
token = "tg-token"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Detect.LowercaseOnly)
	assert.Equal(t, "sk-test", cfg.Generation.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Generation.Model)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.True(t, cfg.Store.DegradeToDefaults)
	assert.Equal(t, 50, cfg.Quota.DailyLimit)
	require.Len(t, cfg.Platforms, 2)
	assert.Equal(t, "telegram", cfg.Platforms[1].Type)
	assert.Equal(t, "tg-token", cfg.Platforms[1].Options["token"])
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[generation]
api_key = "sk-test"

[[platforms]]
type = "console"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "kaiwa.db", cfg.Store.Path)
	assert.False(t, cfg.Detect.LowercaseOnly)
	assert.Zero(t, cfg.Quota.DailyLimit)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing api key", "[[platforms]]\ntype = \"console\"\n", "generation.api_key"},
		{"no platforms", "[generation]\napi_key = \"k\"\n", "at least one platform"},
		{"platform without type", "[generation]\napi_key = \"k\"\n[[platforms]]\n", "platforms[0].type"},
		{"unknown backend", "[generation]\napi_key = \"k\"\n[store]\nbackend = \"redis\"\n[[platforms]]\ntype = \"console\"\n", "unknown store backend"},
		{"postgres without dsn", "[generation]\napi_key = \"k\"\n[store]\nbackend = \"postgres\"\n[[platforms]]\ntype = \"console\"\n", "store.dsn"},
		{"mongo without uri", "[generation]\napi_key = \"k\"\n[store]\nbackend = \"mongo\"\n[[platforms]]\ntype = \"console\"\n", "store.uri"},
		{"negative quota", "[generation]\napi_key = \"k\"\n[quota]\ndaily_limit = -1\n[[platforms]]\ntype = \"console\"\n", "daily_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
