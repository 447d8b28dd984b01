package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// Load returns the defaults overlaid with the file at path (if any) and the
// environment. An empty path falls back to RECORDD_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML or JSON file at path onto c. Fields absent from
// the file keep their current values; a resources list in the file replaces
// the current one.
func (c *Config) LoadFile(path string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := unmarshal(path, data, c); err != nil {
		return err
	}

	// seed files are resolved relative to the config file
	dir := filepath.Dir(path)
	for i := range c.Resources {
		sf := c.Resources[i].SeedFile
		if sf != "" && !filepath.IsAbs(sf) {
			c.Resources[i].SeedFile = filepath.Join(dir, sf)
		}
	}
	return nil
}

// LoadSeedFile reads a YAML or JSON list of seed records.
func LoadSeedFile(path string) ([]map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var entries []map[string]any
	if err := unmarshal(path, data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

// unmarshal decodes YAML or JSON by file extension. JSON is a subset of
// YAML, so both go through yaml.v3, which also understands durations
// such as "5s".
func unmarshal(path string, data []byte, v any) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && !json.Valid(data) {
		return fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		if ext == ".yaml" || ext == ".yml" {
			return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
