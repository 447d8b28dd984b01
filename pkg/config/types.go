package config

import "time"

// Resource kinds.
const (
	KindNote   = "note"
	KindPerson = "person"
)

// Config is the complete server configuration.
type Config struct {
	// Host is the interface to listen on; empty means all interfaces.
	Host string `json:"host" yaml:"host"`
	// Port is the TCP port to listen on; 0 picks a free port.
	Port int `json:"port" yaml:"port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// LogFormat is text or json.
	LogFormat string `json:"logFormat" yaml:"logFormat"`

	// MaxConnections caps simultaneous client connections; 0 means no cap.
	MaxConnections int `json:"maxConnections,omitempty" yaml:"maxConnections,omitempty"`

	// MaxBodySize is the largest accepted request body in bytes.
	MaxBodySize int64 `json:"maxBodySize" yaml:"maxBodySize"`
	// ReadTimeout and WriteTimeout bound a single request.
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`

	CORS CORSConfig `json:"cors" yaml:"cors"`

	// Echo enables POST /mock<path> for every resource.
	Echo bool `json:"echo" yaml:"echo"`

	// Metrics enables request metrics and GET /metrics.
	Metrics bool `json:"metrics" yaml:"metrics"`

	Resources []ResourceConfig `json:"resources" yaml:"resources"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	// Enabled turns the CORS stage on.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// AllowOrigins lists permitted origins; "*" allows any.
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
	AllowMethods []string `json:"allowMethods,omitempty" yaml:"allowMethods,omitempty"`
	AllowHeaders []string `json:"allowHeaders,omitempty" yaml:"allowHeaders,omitempty"`
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
}

// ResourceConfig declares one collection and the path it is served at.
type ResourceConfig struct {
	// Kind is note or person.
	Kind string `json:"kind" yaml:"kind"`
	// Path is the collection path, e.g. /api/persons.
	Path string `json:"path" yaml:"path"`

	// IDStrategy is max or random.
	IDStrategy string `json:"idStrategy,omitempty" yaml:"idStrategy,omitempty"`
	// RandomSpace and RandomAttempts tune the random strategy; 0 keeps the default.
	RandomSpace    int `json:"randomSpace,omitempty" yaml:"randomSpace,omitempty"`
	RandomAttempts int `json:"randomAttempts,omitempty" yaml:"randomAttempts,omitempty"`

	// CreateStatus is the status of a successful create: 200, 201 or 204.
	CreateStatus int `json:"createStatus,omitempty" yaml:"createStatus,omitempty"`

	// RequireNumber makes number a required person field.
	RequireNumber bool `json:"requireNumber,omitempty" yaml:"requireNumber,omitempty"`

	// Seed holds records loaded at start-up.
	Seed []map[string]any `json:"seed,omitempty" yaml:"seed,omitempty"`
	// SeedFile names a YAML or JSON file holding a list of seed records.
	// Its records are loaded after Seed.
	SeedFile string `json:"seedFile,omitempty" yaml:"seedFile,omitempty"`
}
