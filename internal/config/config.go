// Package config loads dashboard settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting for the dashboard server.
type Config struct {
	Addr           string
	Env            string
	APIURL         string
	DB             string
	CSRFKey        []byte
	TokenKey       []byte
	SessionTTL     time.Duration
	BackendTimeout time.Duration
	RateLimit      int
	TrustedOrigins []string
	ResendKey      string
	EmailFrom      string
	SlowRequestMs  int
	SlowQueryMs    int
	SlowUpstreamMs int
	LogLevel       slog.Level
	LogFormat      string
}

// Production reports whether the server runs with production safeguards.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads an optional .env file, then the process environment.
// PRE: none
// POST: Returns a validated Config; missing keys are generated outside production
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{
		Addr:      envOrDefault("DASHBOARD_ADDR", ":8080"),
		Env:       envOrDefault("DASHBOARD_ENV", EnvDevelopment),
		APIURL:    envOrDefault("DASHBOARD_API_URL", "http://127.0.0.1:8000"),
		DB:        envOrDefault("DASHBOARD_DB", "dashboard.db"),
		ResendKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom: envOrDefault("DASHBOARD_EMAIL_FROM", "Project Exhibition <noreply@exhibition.local>"),
		LogFormat: envOrDefault("DASHBOARD_LOG_FORMAT", "text"),
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return Config{}, fmt.Errorf("DASHBOARD_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("DASHBOARD_API_URL must be an http(s) URL, got %q", c.APIURL)
	}

	if c.CSRFKey, err = keyFromEnv("DASHBOARD_CSRF_KEY", c.Production()); err != nil {
		return Config{}, err
	}
	if c.TokenKey, err = keyFromEnv("DASHBOARD_TOKEN_KEY", c.Production()); err != nil {
		return Config{}, err
	}

	if c.SessionTTL, err = durationFromEnv("DASHBOARD_SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if c.BackendTimeout, err = durationFromEnv("DASHBOARD_BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if c.RateLimit, err = intFromEnv("DASHBOARD_RATE_LIMIT", 20); err != nil {
		return Config{}, err
	}
	if c.SlowRequestMs, err = intFromEnv("DASHBOARD_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}
	if c.SlowQueryMs, err = intFromEnv("DASHBOARD_SLOW_QUERY_MS", 50); err != nil {
		return Config{}, err
	}
	if c.SlowUpstreamMs, err = intFromEnv("DASHBOARD_SLOW_UPSTREAM_MS", 300); err != nil {
		return Config{}, err
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("DASHBOARD_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("DASHBOARD_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return Config{}, fmt.Errorf("DASHBOARD_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	for _, origin := range strings.Split(os.Getenv("DASHBOARD_TRUSTED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.TrustedOrigins = append(c.TrustedOrigins, origin)
		}
	}
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// keyFromEnv decodes a 32-byte hex key. Outside production a missing key is
// replaced by a random one, which invalidates sessions on every restart.
func keyFromEnv(name string, required bool) ([]byte, error) {
	v := os.Getenv(name)
	if v == "" {
		if required {
			return nil, fmt.Errorf("%s is required in production", name)
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		slog.Warn("config_generated_key", "name", name)
		return key, nil
	}
	key, err := hex.DecodeString(v)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("%s must be 64 hex characters", name)
	}
	return key, nil
}

func durationFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, v)
	}
	return d, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
