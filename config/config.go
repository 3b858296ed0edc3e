// Package config loads server configuration from YAML files and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/nbrandt/codewright/errors"
	"gopkg.in/yaml.v3"
)

// FilesystemAccess restricts what the file tools may touch. Patterns are
// doublestar globs matched against the path the model supplies.
type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

// Config holds process-wide configuration. It is constructed once at startup
// and shared read-only across sessions.
type Config struct {
	Provider            string           `yaml:"provider"`
	Model               string           `yaml:"model"`
	Port                string           `yaml:"port"`
	ShellTimeoutSeconds int              `yaml:"shell_timeout_seconds"`
	AllowedCommands     []string         `yaml:"allowed_commands"`
	FilesystemAccess    FilesystemAccess `yaml:"filesystem_access"`
}

// Load reads configuration from the user's home directory and the current
// working directory, with the latter taking precedence, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:            "openai",
		Model:               "gpt-4o",
		Port:                "8080",
		ShellTimeoutSeconds: 15,
	}

	// The config directory itself stays invisible to the file tools.
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ".codewright", ".codewright/**")

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".codewright", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			if err := loadFromFile(userPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectPath := filepath.Join(wd, ".codewright", "config.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		if err := loadFromFile(projectPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("CODEWRIGHT_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CODEWRIGHT_MODEL"); v != "" {
		cfg.Model = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, which gives
	// a simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.Model == "" {
		return errors.New("model cannot be empty")
	}
	if c.ShellTimeoutSeconds <= 0 {
		return errors.New("shell_timeout_seconds must be > 0, got %d", c.ShellTimeoutSeconds)
	}
	switch c.Provider {
	case "openai", "anthropic", "gemini", "bedrock", "mock":
	default:
		return errors.New("unknown provider %q", c.Provider)
	}
	return nil
}

// ShellTimeout returns the command execution timeout as a duration.
func (c *Config) ShellTimeout() time.Duration {
	return time.Duration(c.ShellTimeoutSeconds) * time.Second
}
