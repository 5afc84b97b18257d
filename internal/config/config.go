package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults.
//
// Environment Variables:
// Remote transcript service:
// - REMOTE_BASE_URL: base URL of the transcript/summary service (default: http://localhost:8000)
// - REMOTE_TIMEOUT: per-request timeout, Go duration or seconds (default: 30s)
// - REMOTE_RATE_LIMIT: outbound requests per second, 0 disables (default: 5)
//
// HTTP:
// - HTTP_ADDR: listen address (default: :8080)
// - AUTH_HEADER: identity header set by the auth proxy (default: X-Auth-Request-User)
// - AUTH_DISABLED: authorize every request (default: false)
// - UI_ENABLED: serve the viewer's static files (default: false)
// - UI_STATIC_DIR: directory of the viewer's static files (default: /app/web)
//
// Extraction and sessions:
// - EXTRACT_WORKERS: concurrent extraction jobs (default: 2)
// - TITLE_PLACEHOLDER: title used when the service sends none (default: Video Title)
// - SESSION_TTL_MINUTES: idle minutes before a session is swept (default: 60)
// - SESSION_SWEEP_CRON: sweep schedule (default: */10 * * * *)
//
// System:
// - DATA_DIR: directory of the job database (default: /app/data)
// - LOG_LEVEL: debug, info, warn, error (default: info)
type Config struct {
	Remote  RemoteConfig  `json:"remote"`
	HTTP    HTTPConfig    `json:"http"`
	Extract ExtractConfig `json:"extract"`
	Session SessionConfig `json:"session"`
	System  SystemConfig  `json:"system"`
}

type RemoteConfig struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit float64       `json:"rate_limit"`
}

type HTTPConfig struct {
	Addr         string `json:"addr"`
	AuthHeader   string `json:"auth_header"`
	AuthDisabled bool   `json:"auth_disabled"`
	UIEnabled    bool   `json:"ui_enabled"`
	UIStaticDir  string `json:"ui_static_dir"`
}

type ExtractConfig struct {
	Workers          int    `json:"workers"`
	TitlePlaceholder string `json:"title_placeholder"`
}

type SessionConfig struct {
	TTL       time.Duration `json:"ttl"`
	SweepCron string        `json:"sweep_cron"`
}

type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

// DBPath is the sqlite file holding queued extraction jobs.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "extractor.db")
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Remote: RemoteConfig{
			BaseURL:   getEnvString("REMOTE_BASE_URL", "http://localhost:8000"),
			Timeout:   getEnvDuration("REMOTE_TIMEOUT", 30*time.Second),
			RateLimit: getEnvFloat("REMOTE_RATE_LIMIT", 5),
		},
		HTTP: HTTPConfig{
			Addr:         getEnvString("HTTP_ADDR", ":8080"),
			AuthHeader:   getEnvString("AUTH_HEADER", "X-Auth-Request-User"),
			AuthDisabled: getEnvBool("AUTH_DISABLED", false),
			UIEnabled:    getEnvBool("UI_ENABLED", false),
			UIStaticDir:  getEnvString("UI_STATIC_DIR", "/app/web"),
		},
		Extract: ExtractConfig{
			Workers:          getEnvInt("EXTRACT_WORKERS", 2),
			TitlePlaceholder: getEnvString("TITLE_PLACEHOLDER", "Video Title"),
		},
		Session: SessionConfig{
			TTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
			SweepCron: getEnvString("SESSION_SWEEP_CRON", "*/10 * * * *"),
		},
		System: SystemConfig{
			DataDir:  getEnvString("DATA_DIR", "/app/data"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", *config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if err := validateBaseURL(c.Remote.BaseURL); err != nil {
		return fmt.Errorf("REMOTE_BASE_URL: %w", err)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be greater than 0")
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("REMOTE_RATE_LIMIT must not be negative")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if !c.HTTP.AuthDisabled && strings.TrimSpace(c.HTTP.AuthHeader) == "" {
		return fmt.Errorf("AUTH_HEADER is required unless AUTH_DISABLED is set")
	}
	if c.Extract.Workers <= 0 {
		return fmt.Errorf("EXTRACT_WORKERS must be greater than 0")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be greater than 0")
	}
	if _, err := cron.ParseStandard(c.Session.SweepCron); err != nil {
		return fmt.Errorf("invalid SESSION_SWEEP_CRON: %w", err)
	}
	if strings.TrimSpace(c.System.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
