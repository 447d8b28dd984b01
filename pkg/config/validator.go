package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/recordd/recordd/internal/id"
	"github.com/recordd/recordd/pkg/logging"
)

// Paths that resources may not use.
var reservedPaths = []string{"/info", "/mock", "/metrics"}

// Validate checks the configuration and fills per-resource defaults.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("maxConnections must not be negative, got %d", c.MaxConnections))
	}
	if c.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("maxBodySize must be positive, got %d", c.MaxBodySize))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if len(c.Resources) == 0 {
		errs = append(errs, errors.New("at least one resource is required"))
	}

	seen := make(map[string]int)
	for i := range c.Resources {
		r := &c.Resources[i]
		if err := r.validate(); err != nil {
			errs = append(errs, fmt.Errorf("resources[%d]: %w", i, err))
			continue
		}
		if prev, dup := seen[r.Path]; dup {
			errs = append(errs, fmt.Errorf("resources[%d]: path %s already used by resources[%d]", i, r.Path, prev))
			continue
		}
		seen[r.Path] = i
	}

	return errors.Join(errs...)
}

func (r *ResourceConfig) validate() error {
	switch r.Kind {
	case KindNote, KindPerson:
	default:
		return fmt.Errorf("unknown kind %q (want %q or %q)", r.Kind, KindNote, KindPerson)
	}

	if err := validatePath(r.Path); err != nil {
		return err
	}

	if _, err := id.New(r.IDStrategy); err != nil {
		return err
	}
	if r.RandomSpace < 0 || r.RandomAttempts < 0 {
		return errors.New("randomSpace and randomAttempts must not be negative")
	}

	switch r.CreateStatus {
	case 0:
		r.CreateStatus = http.StatusCreated
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return fmt.Errorf("createStatus %d not supported (want 200, 201 or 204)", r.CreateStatus)
	}

	if r.RequireNumber && r.Kind != KindPerson {
		return errors.New("requireNumber applies to person resources only")
	}
	return nil
}

func validatePath(p string) error {
	switch {
	case p == "":
		return errors.New("path is required")
	case !strings.HasPrefix(p, "/"):
		return fmt.Errorf("path %q must start with /", p)
	case p == "/":
		return errors.New("path must not be /")
	case strings.HasSuffix(p, "/"):
		return fmt.Errorf("path %q must not end with /", p)
	case strings.ContainsAny(p, ":*"):
		return fmt.Errorf("path %q must not contain route parameters", p)
	}
	for _, reserved := range reservedPaths {
		if p == reserved || strings.HasPrefix(p, reserved+"/") {
			return fmt.Errorf("path %q is reserved", p)
		}
	}
	return nil
}
