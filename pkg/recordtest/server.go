package recordtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/recordd/recordd/pkg/config"
	"github.com/recordd/recordd/pkg/engine"
	"github.com/recordd/recordd/pkg/logging"
)

// Server is a test helper around an engine.Server served by httptest.
type Server struct {
	t       testing.TB
	cfg     *config.Config
	opts    []engine.ServerOption
	server  *engine.Server
	httpSrv *httptest.Server

	mu       sync.Mutex
	requests []Request
}

// New creates a server with no resources. Add them with Resource before
// calling Start.
func New(t testing.TB, opts ...engine.ServerOption) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Resources = nil
	return &Server{t: t, cfg: cfg, opts: opts}
}

// Default creates a server with the stock notes and persons resources.
func Default(t testing.TB, opts ...engine.ServerOption) *Server {
	t.Helper()
	return &Server{t: t, cfg: config.Default(), opts: opts}
}

// Configure applies fn to the configuration. It has no effect after Start.
func (s *Server) Configure(fn func(*config.Config)) *Server {
	fn(s.cfg)
	return s
}

// Start validates the configuration, builds the server and returns its
// base URL. Calling Start again returns the same URL.
func (s *Server) Start() string {
	s.t.Helper()
	if s.httpSrv != nil {
		return s.httpSrv.URL
	}

	if err := s.cfg.Validate(); err != nil {
		s.t.Fatalf("recordtest: invalid configuration: %v", err)
	}
	opts := append([]engine.ServerOption{engine.WithLogger(logging.Nop())}, s.opts...)
	srv, err := engine.NewServer(s.cfg, opts...)
	if err != nil {
		s.t.Fatalf("recordtest: failed to build server: %v", err)
	}
	s.server = srv
	s.httpSrv = httptest.NewServer(s.record(srv.Handler()))
	s.t.Cleanup(s.Stop)
	return s.httpSrv.URL
}

// Stop closes the server. It is safe to call more than once.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	if s.httpSrv == nil {
		return ""
	}
	return s.httpSrv.URL
}

// Client returns an http.Client for the server.
func (s *Server) Client() *http.Client {
	if s.httpSrv != nil {
		return s.httpSrv.Client()
	}
	return http.DefaultClient
}

// Engine returns the underlying server, or nil before Start.
func (s *Server) Engine() *engine.Server {
	return s.server
}

// record keeps a Request for every call that reaches h.
func (s *Server) record(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
			Status: rec.status,
		})
		s.mu.Unlock()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Requests returns the handled requests, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset forgets the recorded requests. Stored records are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

// Records fetches the collection at path through the HTTP API.
func (s *Server) Records(path string) []map[string]any {
	s.t.Helper()
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		s.t.Fatalf("recordtest: GET %s returned %d: %s", path, rec.Code, rec.Body.String())
	}

	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		s.t.Fatalf("recordtest: GET %s: %v", path, err)
	}
	return out
}

// AssertCount asserts that the collection at path holds n records.
func (s *Server) AssertCount(t testing.TB, path string, n int) {
	t.Helper()
	if got := len(s.Records(path)); got != n {
		t.Errorf("expected %s to hold %d records, but it holds %d", path, n, got)
	}
}

// AssertCalled asserts that method and path were requested at least once.
func (s *Server) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if s.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that method and path were requested n times.
func (s *Server) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()
	if count := s.countCalls(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that method and path were never requested.
func (s *Server) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if count := s.countCalls(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

func (s *Server) countCalls(method, path string) int {
	count := 0
	for _, r := range s.Requests() {
		if r.Method == method && matchesPath(r.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath reports whether actual matches pattern, where a ":name"
// segment matches any single segment.
func matchesPath(actual, pattern string) bool {
	if actual == pattern {
		return true
	}
	a := strings.Split(actual, "/")
	p := strings.Split(pattern, "/")
	if len(a) != len(p) {
		return false
	}
	for i := range p {
		if strings.HasPrefix(p[i], ":") && a[i] != "" {
			continue
		}
		if p[i] != a[i] {
			return false
		}
	}
	return true
}
