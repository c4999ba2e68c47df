package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/agentgate/config"
	"github.com/jmcleod/agentgate/internal/util"
)

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("s3cret\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"hash-password"})
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	hash := strings.TrimSpace(out.String())
	assert.True(t, util.IsArgon2idHash(hash), hash)
}

func TestBuildHandler(t *testing.T) {
	public := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<p>hi</p>"), 0o644))

	cfg, err := config.LoadFrom(map[string]string{
		"PUBLIC_DIR":      public,
		"ADMIN_USERNAME":  "ops",
		"ADMIN_PASSWORD":  "hunter22",
		"ALLOWED_ORIGINS": "https://app.example",
	})
	require.NoError(t, err)

	handler, err := buildHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<p>hi</p>", string(body))

	resp, err = http.Post(srv.URL+"/api/login", "application/json",
		strings.NewReader(`{"username":"ops","password":"hunter22"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, "SameSite=None")
	assert.Contains(t, setCookie, "Secure")
}

func TestBuildHandlerErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing public dir": {"PUBLIC_DIR": filepath.Join(t.TempDir(), "absent")},
		"malformed users":    {"APP_USERS": `{"broken"`},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			if _, ok := environ["PUBLIC_DIR"]; !ok {
				environ["PUBLIC_DIR"] = t.TempDir()
			}
			cfg, err := config.LoadFrom(environ)
			require.NoError(t, err)
			_, err = buildHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.Config{LogLevel: "warn", LogFormat: "text"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
