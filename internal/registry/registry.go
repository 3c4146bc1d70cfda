package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigFileName is the per-environment config file inside each environment directory
const ConfigFileName = ".config.json"

var (
	// ErrRegistryUnavailable is returned when the environments directory cannot be read
	ErrRegistryUnavailable = errors.New("environment registry unavailable")
	// ErrConfigNotFound is returned when an environment has no usable config
	ErrConfigNotFound = errors.New("environment config not found")
)

// EnvironmentID identifies an environment. It is the name of its directory.
type EnvironmentID string

// EnvironmentConfig is the resolved config of one environment
type EnvironmentConfig struct {
	Hosts []string `json:"envHosts"`
}

// PrimaryHost returns the first configured host
func (c EnvironmentConfig) PrimaryHost() string {
	if len(c.Hosts) == 0 {
		return ""
	}
	return c.Hosts[0]
}

// Registry lists environments stored as directories under a root
//
//	<root>/<id>/.config.json
type Registry struct {
	root string
}

// New creates a registry rooted at dir
func New(dir string) *Registry {
	return &Registry{root: dir}
}

// Root returns the environments directory
func (r *Registry) Root() string {
	return r.root
}

// EnvPath returns <root>/<id>
func (r *Registry) EnvPath(id EnvironmentID) string {
	return filepath.Join(r.root, string(id))
}

// ListEnvironments returns every environment with a config file, sorted by name
func (r *Registry) ListEnvironments() ([]EnvironmentID, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	var ids []EnvironmentID
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		configPath := filepath.Join(r.root, entry.Name(), ConfigFileName)
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		ids = append(ids, EnvironmentID(entry.Name()))
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	return ids, nil
}

// ResolveConfig reads the config of a single environment
func (r *Registry) ResolveConfig(id EnvironmentID) (EnvironmentConfig, error) {
	if id == "" || strings.ContainsAny(string(id), `/\`) {
		return EnvironmentConfig{}, fmt.Errorf("%w: invalid environment name %q", ErrConfigNotFound, id)
	}

	path := filepath.Join(r.EnvPath(id), ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return EnvironmentConfig{}, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, id, err)
	}

	var cfg EnvironmentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return EnvironmentConfig{}, fmt.Errorf("%w: %s: invalid %s: %w", ErrConfigNotFound, id, ConfigFileName, err)
	}

	// Drop blank entries so the first host is always usable
	hosts := cfg.Hosts[:0]
	for _, h := range cfg.Hosts {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	cfg.Hosts = hosts

	if len(cfg.Hosts) == 0 {
		return EnvironmentConfig{}, fmt.Errorf("%w: %s: no hosts configured", ErrConfigNotFound, id)
	}

	return cfg, nil
}

// Hosts returns the configured hosts of an environment
func (r *Registry) Hosts(id EnvironmentID) ([]string, error) {
	cfg, err := r.ResolveConfig(id)
	if err != nil {
		return nil, err
	}
	return cfg.Hosts, nil
}
