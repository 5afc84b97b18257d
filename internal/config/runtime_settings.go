package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

const DefaultRuntimeSettingsFile = "/app/config/settings.json"

// RuntimeSettings are the settings that can be changed while running and
// survive a restart through the settings file.
type RuntimeSettings struct {
	RemoteBaseURL    string `json:"remote_base_url"`
	TitlePlaceholder string `json:"title_placeholder"`
	SessionSweepCron string `json:"session_sweep_cron"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if err := validateBaseURL(s.RemoteBaseURL); err != nil {
		return fmt.Errorf("remote_base_url: %w", err)
	}
	if strings.TrimSpace(s.TitlePlaceholder) == "" {
		return fmt.Errorf("title_placeholder is required")
	}
	if strings.TrimSpace(s.SessionSweepCron) == "" {
		return fmt.Errorf("session_sweep_cron is required")
	}
	if _, err := cron.ParseStandard(s.SessionSweepCron); err != nil {
		return fmt.Errorf("invalid session_sweep_cron: %w", err)
	}
	return nil
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		RemoteBaseURL:    c.Remote.BaseURL,
		TitlePlaceholder: c.Extract.TitlePlaceholder,
		SessionSweepCron: c.Session.SweepCron,
	}
}

// WithRuntimeSettings overrides the environment with the non-empty fields of settings.
func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.RemoteBaseURL) != "" {
			c.Remote.BaseURL = settings.RemoteBaseURL
		}
		if strings.TrimSpace(settings.TitlePlaceholder) != "" {
			c.Extract.TitlePlaceholder = settings.TitlePlaceholder
		}
		if strings.TrimSpace(settings.SessionSweepCron) != "" {
			c.Session.SweepCron = settings.SessionSweepCron
		}
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *RuntimeSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
