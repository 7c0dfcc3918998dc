// Package config loads and persists the forja configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	forjaotel "github.com/dmend3z/forja/internal/otel"
)

// DefaultRegistryURL is cloned on first init when no registry is
// configured.
const DefaultRegistryURL = "https://github.com/dmend3z/forja-registry"

// RegistryConfig holds skills registry settings.
type RegistryConfig struct {
	// URL is the git remote the registry is cloned from and pulled
	// against.
	URL string `yaml:"url"`

	// Path overrides the registry checkout location. Empty means
	// <home>/registry.
	Path string `yaml:"path,omitempty"`

	// AutoUpdateCron is a 5-field cron expression for background
	// registry refreshes while the monitor runs. Empty disables them.
	AutoUpdateCron string `yaml:"auto_update_cron,omitempty"`
}

// MonitorConfig holds dashboard server settings.
type MonitorConfig struct {
	// Port the dashboard HTTP server binds on localhost.
	Port int `yaml:"port"`

	// AgentsDir is the directory the monitor watches for team, task,
	// and message state. Empty means <claude_dir>/forja.
	AgentsDir string `yaml:"agents_dir,omitempty"`

	// HeartbeatSeconds is the SSE keep-alive interval. Defaults to 15.
	HeartbeatSeconds int `yaml:"heartbeat_seconds,omitempty"`
}

// Config is the root of ~/.forja/config.yaml.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// ClaudeDir is where skill symlinks are installed
	// (agents/, commands/). Empty means ~/.claude.
	ClaudeDir string `yaml:"claude_dir,omitempty"`

	Registry RegistryConfig   `yaml:"registry"`
	Monitor  MonitorConfig    `yaml:"monitor"`
	OTel     forjaotel.Config `yaml:"otel"`
}

// DefaultHome returns the forja home directory: $FORJA_HOME if set, else
// ~/.forja.
func DefaultHome() (string, error) {
	if env := os.Getenv("FORJA_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".forja"), nil
}

// Default returns a config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Registry.URL == "" {
		c.Registry.URL = DefaultRegistryURL
	}
	if c.Monitor.Port == 0 {
		c.Monitor.Port = 3030
	}
	if c.Monitor.HeartbeatSeconds == 0 {
		c.Monitor.HeartbeatSeconds = 15
	}
}

// RegistryPath resolves the registry checkout directory for the given
// forja home.
func (c *Config) RegistryPath(homeDir string) string {
	if c.Registry.Path != "" {
		return c.Registry.Path
	}
	return filepath.Join(homeDir, "registry")
}

// ResolveClaudeDir resolves the Claude config directory.
func (c *Config) ResolveClaudeDir() (string, error) {
	if c.ClaudeDir != "" {
		return c.ClaudeDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".claude"), nil
}

// AgentsDir resolves the directory the monitor watches for live agent
// state.
func (c *Config) AgentsDir() (string, error) {
	if c.Monitor.AgentsDir != "" {
		return c.Monitor.AgentsDir, nil
	}
	claudeDir, err := c.ResolveClaudeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(claudeDir, "forja"), nil
}

// Load reads <homeDir>/config.yaml. A missing file yields the defaults,
// so every command works before `forja init` has run.
func Load(homeDir string) (*Config, error) {
	path := filepath.Join(homeDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config to <homeDir>/config.yaml, creating the home
// directory if needed.
func Save(homeDir string, cfg *Config) error {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("create home dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(homeDir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
