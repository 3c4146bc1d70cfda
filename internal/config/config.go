package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yaml"

	DefaultEnvironmentsDir = "~/localenv-sites"
	DefaultQueryTimeout    = 10 * time.Second
	DefaultConcurrency     = 4
	DefaultLogLevel        = "warn"
)

// Environment variables that take precedence over the config file.
const (
	EnvEnvironmentsDir = "LOCALENV_ENVIRONMENTS_DIR"
	EnvLogLevel        = "LOCALENV_LOG_LEVEL"
)

// GlobalConfig holds settings shared by every command
type GlobalConfig struct {
	EnvironmentsDir string `yaml:"environments-dir"`
	DockerHost      string `yaml:"docker-host,omitempty"`
	QueryTimeout    string `yaml:"query-timeout,omitempty"`
	Concurrency     int    `yaml:"concurrency,omitempty"`
	LogLevel        string `yaml:"log-level,omitempty"`
}

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

// ConfigDir returns ~/.localenv
func ConfigDir() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".localenv"), nil
}

// GlobalConfigPath returns ~/.localenv/config.yaml
func GlobalConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Default returns the configuration used when no file exists
func Default() *GlobalConfig {
	return &GlobalConfig{
		EnvironmentsDir: DefaultEnvironmentsDir,
		QueryTimeout:    DefaultQueryTimeout.String(),
		Concurrency:     DefaultConcurrency,
		LogLevel:        DefaultLogLevel,
	}
}

// LoadGlobalConfig reads the global config file. A missing file yields the defaults.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return loadFromFile(path)
}

func loadFromFile(path string) (*GlobalConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.EnvironmentsDir == "" {
		cfg.EnvironmentsDir = DefaultEnvironmentsDir
	}
	return cfg, nil
}

// Save writes the config to ~/.localenv/config.yaml
func (c *GlobalConfig) Save() error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolvedEnvironmentsDir returns the absolute environments directory,
// honouring LOCALENV_ENVIRONMENTS_DIR.
func (c *GlobalConfig) ResolvedEnvironmentsDir() (string, error) {
	dir := c.EnvironmentsDir
	if env := os.Getenv(EnvEnvironmentsDir); env != "" {
		dir = env
	}
	if dir == "" {
		dir = DefaultEnvironmentsDir
	}
	return ExpandPath(dir)
}

// Timeout returns the per-environment query timeout
func (c *GlobalConfig) Timeout() time.Duration {
	if c.QueryTimeout == "" {
		return DefaultQueryTimeout
	}
	d, err := ParseDuration(c.QueryTimeout)
	if err != nil {
		return DefaultQueryTimeout
	}
	return d
}

// Workers returns the number of environments queried in parallel
func (c *GlobalConfig) Workers() int {
	if c.Concurrency < 1 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

// Level returns the configured log level, honouring LOCALENV_LOG_LEVEL.
func (c *GlobalConfig) Level() string {
	if env := os.Getenv(EnvLogLevel); env != "" {
		return env
	}
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}
