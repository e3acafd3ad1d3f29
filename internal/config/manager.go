package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Endpoint kinds.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// Endpoint describes one generation endpoint: where to send requests, which
// model to ask for, and the credential to use. The configured list is ordered
// and read-only after load; the dispatcher rotates through it.
type Endpoint struct {
	Name   string `json:"name,omitempty"` // Optional label for logs
	URL    string `json:"url"`            // API root, e.g. https://api.example.com/v1
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
	Kind   string `json:"kind,omitempty"` // openai (default) or anthropic
}

// Config holds the service configuration.
type Config struct {
	Endpoints []Endpoint `json:"endpoints"`

	// TokenBudget is the per-request token budget driving condensation.
	TokenBudget int `json:"token_budget,omitempty"`
	// CooldownSeconds is the wait imposed after any endpoint failure.
	// Omitted means the 30s default; the schema rejects an explicit zero
	// rather than letting it silently become the default.
	CooldownSeconds int `json:"cooldown_seconds,omitempty"`
	// RequestTimeoutSeconds bounds a single outbound request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`
	// CostDivisor is the length-to-cost divisor of the cost estimator.
	CostDivisor float64 `json:"cost_divisor,omitempty"`

	DBPath    string `json:"db_path,omitempty"`    // SQLite records database
	IndexPath string `json:"index_path,omitempty"` // Bleve search index
	WatchDir  string `json:"watch_dir,omitempty"`  // Directory the ingest watcher observes
}

// Defaults applied by ApplyDefaults.
const (
	DefaultTokenBudget    = 3000
	DefaultCooldownSec    = 30
	DefaultRequestTimeout = 600
	DefaultCostDivisor    = 1.8
)

// ApplyDefaults fills unset numeric fields and derives data paths from dir
// when they are empty.
func (c *Config) ApplyDefaults(dir string) {
	if c.TokenBudget <= 0 {
		c.TokenBudget = DefaultTokenBudget
	}
	if c.CooldownSeconds <= 0 {
		c.CooldownSeconds = DefaultCooldownSec
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if c.CostDivisor <= 0 {
		c.CostDivisor = DefaultCostDivisor
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "records.db")
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join(dir, "search.bleve")
	}
}

// Cooldown returns the failure cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Manager handles loading and saving the configuration file.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted in the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "recap")}, nil
}

// NewManagerAt creates a manager rooted at an explicit directory.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string {
	return m.configDir
}

// ConfigPath returns the absolute path of config.json.
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads, validates, and unmarshals the configuration, applying
// defaults. A missing file yields an empty Config with defaults and no
// error; callers decide whether zero endpoints is acceptable.
func (m *Manager) Load() (*Config, error) {
	path := m.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := &Config{}
		cfg.ApplyDefaults(m.configDir)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	cfg.ApplyDefaults(m.configDir)
	return &cfg, nil
}

// Save writes the configuration with restricted permissions (it carries
// credentials).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
