package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvHost      = "RECORDD_HOST"
	EnvPort      = "RECORDD_PORT"
	EnvPortShort = "PORT"
	EnvLogLevel  = "RECORDD_LOG_LEVEL"
	EnvLogFormat = "RECORDD_LOG_FORMAT"
	EnvConfig    = "RECORDD_CONFIG"
)

// ApplyEnv overlays values present in the environment. RECORDD_PORT wins
// over PORT when both are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}

	for _, name := range []string{EnvPortShort, EnvPort} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", name, v)
		}
		c.Port = port
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	return nil
}
