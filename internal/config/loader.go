package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name searched for in the
	// working and home directories.
	DefaultConfigFile = ".leakwatch"

	// EnvConfig names an explicit configuration file.
	EnvConfig = "LEAKWATCH_CONFIG"
	// EnvDBDir overrides db_dir.
	EnvDBDir = "LEAKWATCH_DB_DIR"
	// EnvAddr overrides addr.
	EnvAddr = "LEAKWATCH_ADDR"
	// EnvProxy overrides proxy.
	EnvProxy = "LEAKWATCH_PROXY"
)

// ErrConfigNotFound is returned when an explicitly named configuration file
// does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load builds the effective configuration: defaults, then the configuration
// file, then environment overrides. configPath may be empty, in which case
// the file is searched for and its absence is not an error.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	explicit := configPath != "" || os.Getenv(EnvConfig) != ""
	path := FindConfigFile(configPath)
	switch {
	case path != "":
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	case explicit:
		name := configPath
		if name == "" {
			name = os.Getenv(EnvConfig)
		}
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadFile merges the YAML file at path over c. Keys missing from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	if err := c.decode(data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.ConfigFilePath = path
	return nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv applies environment overrides using lookup, typically os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBDir); ok && v != "" {
		c.DBDir = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup(EnvProxy); ok {
		c.ProxyAddress = v
	}
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if specified
//  2. $LEAKWATCH_CONFIG
//  3. .leakwatch in the current directory
//  4. .leakwatch in the user's home directory
//  5. config.yaml in the XDG config directory
//
// It returns an empty string when nothing is found. An explicitly named
// file that does not exist is not replaced by a later candidate.
func FindConfigFile(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
