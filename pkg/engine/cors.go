// CORS stage for the record server.

package engine

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/recordd/recordd/pkg/config"
)

// StageCORS is the name of the CORS stage.
const StageCORS = "cors"

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin", "X-Request-Id"}
)

// CORSStage returns the CORS stage for cfg. A disabled config yields a
// pass-through stage.
func CORSStage(cfg config.CORSConfig) Stage {
	return Stage{
		Name: StageCORS,
		Wrap: func(next http.Handler) http.Handler {
			if !cfg.Enabled {
				return next
			}
			return &corsHandler{next: next, cfg: cfg}
		},
	}
}

type corsHandler struct {
	next http.Handler
	cfg  config.CORSConfig
}

func (m *corsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowOrigin := m.allowOrigin(origin)

	if allowOrigin != "" {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}

		methods := m.cfg.AllowMethods
		if len(methods) == 0 {
			methods = defaultCORSMethods
		}
		h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

		headers := m.cfg.AllowHeaders
		if len(headers) == 0 {
			headers = defaultCORSHeaders
		}
		h.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
		h.Set("Access-Control-Expose-Headers", "X-Request-Id")

		maxAge := m.cfg.MaxAge
		if maxAge <= 0 {
			maxAge = 86400
		}
		h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	}

	// Preflight never reaches the router. An OPTIONS request without an
	// Origin from a non-wildcard config is not a preflight and falls through.
	if r.Method == http.MethodOptions {
		switch {
		case allowOrigin != "":
			w.WriteHeader(http.StatusNoContent)
			return
		case origin != "":
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}

	m.next.ServeHTTP(w, r)
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed.
func (m *corsHandler) allowOrigin(origin string) string {
	if slices.Contains(m.cfg.AllowOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(m.cfg.AllowOrigins, origin) {
		return origin
	}
	return ""
}
