// Package config handles configuration for maestro-inspector.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultServerURL         = "http://127.0.0.1:4723"
	DefaultKeepAliveInterval = 20 * time.Second
	DefaultFramework         = "js"
	DefaultLogLevel          = "info"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Automation server
	ServerURL    string                 `yaml:"serverUrl"`
	SessionID    string                 `yaml:"sessionId"`    // attach to a running session instead of creating one
	Capabilities map[string]interface{} `yaml:"capabilities"` // W3C alwaysMatch capabilities

	// Inspector loop
	PollInterval      time.Duration `yaml:"pollInterval"`      // 0 disables source polling
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval"` // session ping period
	AppMode           string        `yaml:"appMode"`           // native, web_hybrid

	// Recorder
	Framework string `yaml:"framework"` // js, python

	// Catalog override
	ActionsFile string `yaml:"actionsFile"`

	// Logging
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.AppMode == "" {
		c.AppMode = "native"
	}
	if c.Framework == "" {
		c.Framework = DefaultFramework
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Capabilities == nil {
		c.Capabilities = map[string]interface{}{}
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg, nil
}
