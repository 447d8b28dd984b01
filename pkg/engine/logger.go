package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/recordd/recordd/internal/id"
)

// StageAccessLog is the name of the access log stage.
const StageAccessLog = "accesslog"

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-Id"

// statusWriter wraps http.ResponseWriter to capture the status code and
// the number of body bytes written.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter.
func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write writes data to the underlying ResponseWriter.
func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// AccessLogStage logs one line per request after the response is written:
// method, path, status, duration, request id and the decoded body.
// It needs the body stage to have run, and sets X-Request-Id on the response,
// reusing the id sent by the client when there is one.
func AccessLogStage(log *slog.Logger) Stage {
	return Stage{
		Name:     StageAccessLog,
		Requires: []string{StageBody},
		Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()

				reqID := r.Header.Get(HeaderRequestID)
				if reqID == "" {
					reqID = id.Request()
				}
				w.Header().Set(HeaderRequestID, reqID)

				sw := newStatusWriter(w)
				next.ServeHTTP(sw, r)

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.statusCode,
					"duration", time.Since(start),
					"bytes", sw.bytes,
					"request_id", reqID,
				}
				if body := BodyFromContext(r.Context()); body != nil && body.Value != nil {
					attrs = append(attrs, "body", body.Value)
				}
				log.Info("request", attrs...)
			})
		},
	}
}
