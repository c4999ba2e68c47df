package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "./public", cfg.PublicDir)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "change-me", cfg.AdminPassword)
	assert.Equal(t, "https://api.openai.com/v1/", cfg.OpenAIBaseURL)
	assert.Equal(t, 60*time.Second, cfg.AgentTimeout)
	assert.Equal(t, DefaultCSP, cfg.CSP())
	assert.False(t, cfg.SPAFallback)
	assert.Nil(t, cfg.SecureOverride())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"HOST":            "127.0.0.1",
		"PORT":            "9090",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"AGENT_TIMEOUT":   "5s",
		"SPA_FALLBACK":    "true",
		"LOG_LEVEL":       "debug",
		"LOG_FORMAT":      "text",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "https://a.example, https://b.example", cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.AgentTimeout)
	assert.True(t, cfg.SPAFallback)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestCSP(t *testing.T) {
	tests := map[string]string{
		"":                    DefaultCSP,
		"  ":                  DefaultCSP,
		"off":                 "",
		"OFF":                 "",
		"default-src 'none'":  "default-src 'none'",
		" default-src 'self'": "default-src 'self'",
	}
	for raw, want := range tests {
		cfg, err := LoadFrom(map[string]string{"CONTENT_SECURITY_POLICY": raw})
		require.NoError(t, err)
		assert.Equal(t, want, cfg.CSP(), "CONTENT_SECURITY_POLICY=%q", raw)
	}
}

func TestSecureOverride(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{" on ", true},
		{"0", false},
		{"false", false},
		{"off", false},
		{"nope", false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			cfg, err := LoadFrom(map[string]string{"SESSION_COOKIE_SECURE": tc.raw})
			require.NoError(t, err)
			got := cfg.SecureOverride()
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]map[string]string{
		"port zero":     {"PORT": "0"},
		"port too big":  {"PORT": "70000"},
		"port not int":  {"PORT": "http"},
		"zero timeout":  {"AGENT_TIMEOUT": "0s"},
		"bad duration":  {"AGENT_TIMEOUT": "soon"},
		"bad level":     {"LOG_LEVEL": "loud"},
		"bad format":    {"LOG_FORMAT": "xml"},
		"bad same site": {"SESSION_COOKIE_SAMESITE": "sometimes"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AGENT_MODEL=gpt-test\nPORT=8123\n"), 0o600))

	t.Setenv("PORT", "8124")
	t.Setenv("AGENT_MODEL", "")
	require.NoError(t, os.Unsetenv("AGENT_MODEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.AgentModel)
	assert.Equal(t, 8124, cfg.Port, "process environment wins over the file")
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
