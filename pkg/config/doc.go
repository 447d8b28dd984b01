// Package config holds the server configuration and loads it from defaults,
// a YAML or JSON file and the environment, in that order. Command-line flags
// are applied last by the CLI, after which Validate must be called.
package config
