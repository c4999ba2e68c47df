// Package config resolves the gateway configuration from the environment
// once at startup. Nothing reads the environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultCSP allows same-origin resources only. It applies when
// CONTENT_SECURITY_POLICY is unset or empty.
const DefaultCSP = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'"

// Config is the complete gateway configuration.
type Config struct {
	Host      string `env:"HOST" envDefault:"0.0.0.0"`
	Port      int    `env:"PORT" envDefault:"8000"`
	PublicDir string `env:"PUBLIC_DIR" envDefault:"./public"`

	// AllowedOrigins is a comma-separated list; "*" admits every origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	CookieSameSite string `env:"SESSION_COOKIE_SAMESITE"`
	// CookieSecure is kept raw so that "unset" and "false" stay distinct.
	CookieSecure string `env:"SESSION_COOKIE_SECURE"`

	Users               string `env:"APP_USERS"`
	AdminUsername       string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword       string `env:"ADMIN_PASSWORD" envDefault:"change-me"`
	DefaultAllowedPages string `env:"DEFAULT_ALLOWED_PAGES"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1/"`
	AgentModel    string        `env:"AGENT_MODEL"`
	AgentTimeout  time.Duration `env:"AGENT_TIMEOUT" envDefault:"60s"`

	SPAFallback bool `env:"SPA_FALLBACK" envDefault:"false"`
	// ContentSecurityPolicy overrides DefaultCSP; "off" omits the header.
	ContentSecurityPolicy string `env:"CONTENT_SECURITY_POLICY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables already set, then parses the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server could not start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be positive, got %s", c.AgentTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.CookieSameSite)) {
	case "", "strict", "lax", "none":
	default:
		return fmt.Errorf("SESSION_COOKIE_SAMESITE must be Strict, Lax or None, got %q", c.CookieSameSite)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SecureOverride returns the explicit Secure cookie flag, or nil when the
// variable is unset. Truthy values are 1, true, yes and on.
func (c Config) SecureOverride() *bool {
	if c.CookieSecure == "" {
		return nil
	}
	v := isTruthy(c.CookieSecure)
	return &v
}

// CSP returns the Content-Security-Policy header value; empty means none.
func (c Config) CSP() string {
	switch v := strings.TrimSpace(c.ContentSecurityPolicy); {
	case v == "":
		return DefaultCSP
	case strings.EqualFold(v, "off"):
		return ""
	default:
		return v
	}
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
