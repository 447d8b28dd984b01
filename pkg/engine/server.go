package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/recordd/recordd/internal/id"
	"github.com/recordd/recordd/pkg/config"
	"github.com/recordd/recordd/pkg/logging"
	"github.com/recordd/recordd/pkg/metrics"
	"github.com/recordd/recordd/pkg/stateful"
)

// Server hosts the configured collections.
type Server struct {
	cfg       *config.Config
	log       *slog.Logger
	now       func() time.Time
	idOpts    []id.RandomOption
	resources []resource
	metrics   *metrics.Collector
	handler   *Handler
	entry     http.Handler

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
	startTime  time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational and access logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock replaces time.Now for record defaults and the info page.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandomOptions adds options to every random id generator, after those
// derived from the resource config.
func WithRandomOptions(opts ...id.RandomOption) ServerOption {
	return func(s *Server) {
		s.idOpts = append(s.idOpts, opts...)
	}
}

// NewServer builds the collections, seeds them and assembles the request
// pipeline. cfg must have passed Validate; a nil cfg uses config.Default().
func NewServer(cfg *config.Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var metricsHandler http.Handler
	if cfg.Metrics {
		s.metrics = metrics.NewCollector()
		metricsHandler = s.metrics.Handler()
	}

	logObs := &logObserver{log: s.log}
	for i := range cfg.Resources {
		rc := &cfg.Resources[i]
		var obs stateful.Observer = logObs
		if s.metrics != nil {
			obs = stateful.Observers(logObs, &metricsObserver{resource: rc.Path, m: s.metrics})
		}
		res, err := s.buildResource(rc, obs)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", rc.Path, err)
		}
		s.resources = append(s.resources, res)
	}

	handler, err := newHandler(s.resources, cfg.Echo, metricsHandler, s.now, s.log)
	if err != nil {
		return nil, err
	}
	s.handler = handler

	pipeline := NewPipeline()
	if s.metrics != nil {
		pipeline.Use(MetricsStage(s.metrics, handler.route))
	}
	pipeline.Use(CORSStage(cfg.CORS)).
		Use(BodyStage(cfg.MaxBodySize)).
		Use(AccessLogStage(s.log))
	s.entry, err = pipeline.Then(handler)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return s, nil
}

func (s *Server) buildResource(rc *config.ResourceConfig, obs stateful.Observer) (resource, error) {
	var randOpts []id.RandomOption
	if rc.RandomSpace > 0 {
		randOpts = append(randOpts, id.WithSpace(rc.RandomSpace))
	}
	if rc.RandomAttempts > 0 {
		randOpts = append(randOpts, id.WithMaxAttempts(rc.RandomAttempts))
	}
	randOpts = append(randOpts, s.idOpts...)

	gen, err := id.New(rc.IDStrategy, randOpts...)
	if err != nil {
		return nil, err
	}

	seed := rc.Seed
	if rc.SeedFile != "" {
		fromFile, err := config.LoadSeedFile(rc.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = append(append([]map[string]any(nil), seed...), fromFile...)
	}

	switch rc.Kind {
	case config.KindNote:
		return mount(rc, stateful.NoteKind(), gen, seed, obs, s)
	case config.KindPerson:
		return mount(rc, stateful.PersonKind(rc.RequireNumber), gen, seed, obs, s)
	default:
		return nil, fmt.Errorf("unknown kind %q", rc.Kind)
	}
}

func mount[T stateful.Record[T]](
	rc *config.ResourceConfig,
	kind stateful.Kind[T],
	gen id.Generator,
	seed []map[string]any,
	obs stateful.Observer,
	s *Server,
) (resource, error) {
	coll := stateful.NewCollection(kind.Singular, gen, kind.Rules...)
	if err := stateful.Seed(coll, kind, seed, s.now()); err != nil {
		return nil, err
	}
	coll.SetObserver(obs)
	if s.metrics != nil {
		s.metrics.SetRecords(rc.Path, coll.Count())
	}

	h, err := newResourceHandler(rc.Path, kind, coll, rc.CreateStatus, s.now, s.log)
	if err != nil {
		return nil, err
	}
	s.log.Debug("resource mounted",
		"path", rc.Path,
		"kind", kind.Singular,
		"id_strategy", coll.Strategy(),
		"records", coll.Count(),
	)
	return h, nil
}

// Handler returns the full request pipeline. It is usable without Start,
// which is how tests drive the server.
func (s *Server) Handler() http.Handler {
	return s.entry
}

// Start listens on the configured host and port and serves in the
// background. Port 0 picks a free port; see Addr.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.entry,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	s.log.Info("server started", "addr", ln.Addr().String(), "resources", s.paths())
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		// Connections still open when ctx ended are dropped so the
		// server is really down once Stop returns.
		closeErr := s.httpServer.Close()
		s.running = false
		s.log.Warn("forced server close", "error", err)
		return errors.Join(fmt.Errorf("HTTP shutdown: %w", err), closeErr)
	}
	s.running = false
	s.log.Info("server stopped", "uptime", time.Since(s.startTime).Round(time.Millisecond))
	return nil
}

// Addr returns the listening address, or "" when the server is not running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) paths() []string {
	paths := make([]string, len(s.resources))
	for i, r := range s.resources {
		paths[i] = r.Path()
	}
	return paths
}

// logObserver logs collection writes.
type logObserver struct {
	log *slog.Logger
}

func (o *logObserver) OnCreate(kind string, id int) {
	o.log.Debug("record created", "kind", kind, "id", id)
}

func (o *logObserver) OnUpdate(kind string, id int) {
	o.log.Debug("record updated", "kind", kind, "id", id)
}

func (o *logObserver) OnDelete(kind string, id int, found bool) {
	if !found {
		o.log.Info("delete of absent id", "kind", kind, "id", id)
		return
	}
	o.log.Debug("record deleted", "kind", kind, "id", id)
}

func (o *logObserver) OnReject(kind, op string, err error) {
	o.log.Debug("write rejected", "kind", kind, "op", op, "error", err)
}
