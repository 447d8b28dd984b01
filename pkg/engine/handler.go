package engine

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/recordd/recordd/pkg/httputil"
)

// Handler dispatches requests to the mounted resources.
type Handler struct {
	router    *httprouter.Router
	resources []resource
	echo      bool
	now       func() time.Time
	log       *slog.Logger
}

// newHandler builds the router for resources. Routes that cannot coexist,
// such as /a and /a/b, are reported as an error. A nil metricsHandler leaves
// /metrics unrouted.
func newHandler(resources []resource, echo bool, metricsHandler http.Handler, now func() time.Time, log *slog.Logger) (h *Handler, err error) {
	router := httprouter.New()
	// every miss, including a known path with an unsupported method, is an
	// unknown endpoint
	router.HandleMethodNotAllowed = false
	router.HandleOPTIONS = false
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	h = &Handler{router: router, resources: resources, echo: echo, now: now, log: log}

	router.NotFound = http.HandlerFunc(h.handleUnknown)
	router.PanicHandler = h.handlePanic

	// httprouter panics on conflicting routes
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("route conflict: %v", rec)
		}
	}()

	router.GET("/", h.handleRoot)
	router.GET("/info", h.handleInfo)
	if metricsHandler != nil {
		router.Handler(http.MethodGet, MetricsPath, metricsHandler)
	}
	for _, res := range resources {
		res.register(router, echo)
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// route returns the route pattern r falls under, for metric labels.
func (h *Handler) route(r *http.Request) string {
	p := r.URL.Path
	switch p {
	case "/", "/info", MetricsPath:
		return p
	}
	for _, res := range h.resources {
		base := res.Path()
		switch {
		case p == base:
			return base
		case strings.HasPrefix(p, base+"/") && !strings.Contains(p[len(base)+1:], "/"):
			return base + "/:id"
		case h.echo && p == "/mock"+base:
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteHTML(w, "<h1>Hello World</h1>")
}

// handleInfo lists a summary line per resource and the time of the request.
func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	var b strings.Builder
	for _, res := range h.resources {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(res.Summary()))
	}
	fmt.Fprintf(&b, "<p>%s</p>\n", h.now().Format(time.RFC1123))
	httputil.WriteHTML(w, b.String())
}

func (h *Handler) handleUnknown(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteMessage(w, http.StatusNotFound, "unknown endpoint")
}

func (h *Handler) handlePanic(w http.ResponseWriter, r *http.Request, v any) {
	h.log.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", v)
	httputil.WriteMessage(w, http.StatusInternalServerError, "internal error")
}
