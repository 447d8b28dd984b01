package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordd/recordd/internal/id"
	"github.com/recordd/recordd/pkg/config"
	"github.com/recordd/recordd/pkg/logging"
	"github.com/recordd/recordd/pkg/stateful"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestServer builds a server from the default config after mutate.
func newTestServer(t *testing.T, mutate func(*config.Config), opts ...ServerOption) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	opts = append([]ServerOption{
		WithClock(func() time.Time { return testNow }),
		WithRandomOptions(id.WithSource(rand.NewPCG(1, 2))),
	}, opts...)
	srv, err := NewServer(cfg, opts...)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[stateful.ErrorResponse](t, rec).Error
}

func emptyNotes(c *config.Config) {
	c.Resources[0].Seed = nil
}

func TestNotes_CreateOnEmptyCollection(t *testing.T) {
	h := newTestServer(t, emptyNotes).Handler()

	rec := do(t, h, http.MethodPost, "/notes", `{"content":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[stateful.Note](t, rec)
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, "hello", first.Content)
	assert.False(t, first.Important)
	assert.True(t, testNow.Equal(first.Date))

	rec = do(t, h, http.MethodPost, "/notes", `{"content":"world","important":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[stateful.Note](t, rec)
	assert.Equal(t, 1, second.ID)
	assert.True(t, second.Important)
}

func TestNotes_DeleteThenGet(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodDelete, "/notes/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/notes/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "note id 2 does not exist", errorOf(t, rec))

	rec = do(t, h, http.MethodGet, "/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]stateful.Note](t, rec)
	require.Len(t, notes, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{notes[0].ID, notes[1].ID, notes[2].ID})
}

func TestNotes_DeleteAbsentIsIdempotent(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for _, path := range []string{"/notes/99", "/notes/99", "/notes/abc"} {
		rec := do(t, h, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
	assert.Len(t, decode[[]stateful.Note](t, do(t, h, http.MethodGet, "/notes", "")), 4)
}

func TestNotes_GetAfterPost(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	created := decode[stateful.Note](t, do(t, h, http.MethodPost, "/notes", `{"content":"x","id":1}`))
	assert.Equal(t, 4, created.ID, "client id is ignored")

	rec := do(t, h, http.MethodGet, "/notes/"+strconv.Itoa(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[stateful.Note](t, rec))
}

func TestNotes_ValidationLeavesStoreUnchanged(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "empty object", body: `{}`, wantMsg: "content missing"},
		{name: "empty content", body: `{"content":""}`, wantMsg: "content missing"},
		{name: "wrong type", body: `{"content":12}`, wantMsg: "content: expected string"},
		{name: "not an object", body: `["content"]`, wantMsg: "expected object"},
		{name: "bad date", body: `{"content":"x","date":"yesterday"}`, wantMsg: "invalid payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/notes", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorOf(t, rec), tt.wantMsg)
		})
	}
	assert.Len(t, decode[[]stateful.Note](t, do(t, h, http.MethodGet, "/notes", "")), 4)
}

func TestNotes_NonJSONBodyIsIgnored(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"content":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content missing", errorOf(t, rec))
}

func TestNotes_NoUpdateRoute(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPut, "/notes/1", `{"content":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown endpoint", errorOf(t, rec))
}

func TestPersons_CreateReturnsNoContent(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/persons", `{"name":"Grace Hopper","number":"1-800"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	persons := decode[[]stateful.Person](t, do(t, h, http.MethodGet, "/api/persons", ""))
	require.Len(t, persons, 5)
	last := persons[4]
	assert.Equal(t, "Grace Hopper", last.Name)
	assert.GreaterOrEqual(t, last.ID, 1)
}

func TestPersons_Validation(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing name", body: `{"number":"1"}`, wantMsg: "name missing"},
		{name: "duplicate name", body: `{"name":"Arto Hellas","number":"1"}`, wantMsg: "name must be unique"},
		{name: "number type", body: `{"name":"x","number":5}`, wantMsg: "number: expected string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/persons", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorOf(t, rec), tt.wantMsg)
		})
	}
	assert.Len(t, decode[[]stateful.Person](t, do(t, h, http.MethodGet, "/api/persons", "")), 4)
}

func TestPersons_RequireNumber(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Resources[1].RequireNumber = true
	}).Handler()

	rec := do(t, h, http.MethodPost, "/api/persons", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "number missing", errorOf(t, rec))

	rec = do(t, h, http.MethodPost, "/api/persons", `{}`)
	assert.Equal(t, "name and number missing", errorOf(t, rec))
}

func TestPersons_Update(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPut, "/api/persons/1", `{"number":"999"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stateful.Person{ID: 1, Name: "Arto Hellas", Number: "999"}, decode[stateful.Person](t, rec))

	rec = do(t, h, http.MethodPut, "/api/persons/1", `{"name":"Ada Lovelace"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name must be unique", errorOf(t, rec))

	rec = do(t, h, http.MethodPut, "/api/persons/77", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "person id 77 does not exist", errorOf(t, rec))

	rec = do(t, h, http.MethodPut, "/api/persons/x", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got := decode[stateful.Person](t, do(t, h, http.MethodGet, "/api/persons/1", ""))
	assert.Equal(t, "999", got.Number)
}

func TestPersons_UniqueIDsUnderRandomStrategy(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for i := range 150 {
		rec := do(t, h, http.MethodPost, "/api/persons", `{"name":"p`+strconv.Itoa(i)+`"}`)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}

	persons := decode[[]stateful.Person](t, do(t, h, http.MethodGet, "/api/persons", ""))
	require.Len(t, persons, 154)
	seen := make(map[int]bool)
	for _, p := range persons {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}

func TestPersons_CapacityExceeded(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Resources[1].RandomSpace = 1
		c.Resources[1].RandomAttempts = 1
	}).Handler()

	rec := do(t, h, http.MethodPost, "/api/persons", `{"name":"Grace Hopper"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "capacity exceeded", errorOf(t, rec))
	assert.Len(t, decode[[]stateful.Person](t, do(t, h, http.MethodGet, "/api/persons", "")), 4)
}

func TestUnknownEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/unknown/path"},
		{http.MethodPatch, "/notes/1"},
		{http.MethodDelete, "/notes"},
		{http.MethodGet, "/mock/notes"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"unknown endpoint"}`, rec.Body.String())
		})
	}
}

func TestJSONIsIndented(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/notes/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{
  "id": 0,
  "content": "This is express server",
  "date": "2019-05-30T17:30:31.098Z",
  "important": true
}
`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRootAndInfo(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Hello World</h1>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<p>Notebook has 4 notes</p>")
	assert.Contains(t, body, "<p>Phonebook has info for 4 people</p>")
	assert.Contains(t, body, testNow.Format(time.RFC1123))
}

func TestEcho(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/mock/notes", `{"content":"draft","anything":[1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"content":"draft","anything":[1,2]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/mock/api/persons", "")
	assert.JSONEq(t, `{}`, rec.Body.String())

	assert.Len(t, decode[[]stateful.Note](t, do(t, h, http.MethodGet, "/notes", "")), 4)

	h = newTestServer(t, func(c *config.Config) { c.Echo = false }).Handler()
	rec = do(t, h, http.MethodPost, "/mock/notes", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedJSON(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"truncated", "/notes", `{"content":`},
		{"trailing brace", "/notes", `{"content":"hi"}}`},
		{"trailing bracket", "/api/persons", `{"name":"Grace Hopper"}]`},
		{"echo trailing bracket", "/mock/notes", `{"content":"hi"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "malformed JSON", errorOf(t, rec))
		})
	}
	assert.Len(t, decode[[]stateful.Note](t, do(t, h, http.MethodGet, "/notes", "")), 4)
	assert.Len(t, decode[[]stateful.Person](t, do(t, h, http.MethodGet, "/api/persons", "")), 4)
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.MaxBodySize = 16 }).Handler()

	rec := do(t, h, http.MethodPost, "/notes", `{"content":"this is longer than sixteen bytes"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request body too large", errorOf(t, rec))
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/persons", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rec = do(t, h, http.MethodGet, "/notes", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.CORS.AllowOrigins = []string{"http://allowed.test"}
	}).Handler()

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/notes", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://allowed.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://allowed.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://evil.test")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON, Output: &buf})
	h := newTestServer(t, nil, WithLogger(logger)).Handler()

	rec := do(t, h, http.MethodPost, "/notes", `{"content":"logged"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reqID := rec.Header().Get(HeaderRequestID)
	assert.Len(t, reqID, 36)

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		require.NoError(t, json.Unmarshal(line, &e))
		if e["msg"] == "request" {
			entry = e
		}
	}
	require.NotNil(t, entry, buf.String())
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/notes", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Equal(t, reqID, entry["request_id"])
	assert.Equal(t, map[string]any{"content": "logged"}, entry["body"])
}

func TestAccessLog_ReusesClientRequestID(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestAccessLog_AbsentDeleteIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	h := newTestServer(t, nil, WithLogger(logger)).Handler()

	do(t, h, http.MethodDelete, "/notes/42", "")
	assert.Contains(t, buf.String(), "delete of absent id")
	assert.Contains(t, buf.String(), "id=42")
}

func TestNewServer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name: "route conflict",
			mutate: func(c *config.Config) {
				c.Resources = append(c.Resources, config.ResourceConfig{Kind: config.KindNote, Path: "/notes/archive"})
			},
			wantErr: "route conflict",
		},
		{
			name: "bad seed",
			mutate: func(c *config.Config) {
				c.Resources[1].Seed = append(c.Resources[1].Seed, map[string]any{"name": "Arto Hellas"})
			},
			wantErr: "name must be unique",
		},
		{
			name: "missing seed file",
			mutate: func(c *config.Config) {
				c.Resources[0].SeedFile = "/nonexistent/notes.yaml"
			},
			wantErr: "not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			require.NoError(t, cfg.Validate())

			_, err := NewServer(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	srv, err := NewServer(nil)
	require.NoError(t, err)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/persons", "")
	assert.Len(t, decode[[]stateful.Person](t, rec), 4)
}

func TestServer_StartStop(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Host = "127.0.0.1"
		c.Port = 0
	})
	require.NoError(t, srv.Start())
	assert.True(t, srv.IsRunning())
	assert.Error(t, srv.Start(), "second start fails")

	resp, err := http.Get(srv.URL() + "/notes/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.False(t, srv.IsRunning())
	assert.Empty(t, srv.Addr())
	require.NoError(t, srv.Stop(ctx), "stop is idempotent")
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	do(t, h, http.MethodGet, "/notes/1", "")
	do(t, h, http.MethodGet, "/notes/99", "")
	do(t, h, http.MethodPost, "/notes", `{"content":"x"}`)
	do(t, h, http.MethodPost, "/api/persons", `{"name":"Arto Hellas"}`)
	do(t, h, http.MethodDelete, "/notes/0", "")
	do(t, h, http.MethodDelete, "/notes/0", "")
	do(t, h, http.MethodGet, "/nope/a/b", "")

	rec := do(t, h, http.MethodGet, MetricsPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `recordd_requests_total{method="GET",route="/notes/:id",status="200"} 1`)
	assert.Contains(t, body, `recordd_requests_total{method="GET",route="/notes/:id",status="404"} 1`)
	assert.Contains(t, body, `recordd_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `recordd_records{resource="/notes"} 4`)
	assert.Contains(t, body, `recordd_records{resource="/api/persons"} 4`)
	assert.Contains(t, body, `recordd_rejected_writes_total{op="create",resource="/api/persons"} 1`)
	assert.Contains(t, body, `recordd_deletes_total{found="false",resource="/notes"} 1`)
	assert.Contains(t, body, `recordd_deletes_total{found="true",resource="/notes"} 1`)
}

func TestMetrics_UnknownMethodsShareOneSeries(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for i := range 100 {
		do(t, h, "X"+strconv.Itoa(i), "/notes", "")
	}
	do(t, h, http.MethodPatch, "/notes/1", "")

	body := do(t, h, http.MethodGet, MetricsPath, "").Body.String()
	assert.Contains(t, body, `recordd_requests_total{method="other",route="/notes",status="404"} 100`)
	assert.Contains(t, body, `recordd_requests_total{method="other",route="/notes/:id",status="404"} 1`)
	assert.NotContains(t, body, `method="X`)
	assert.NotContains(t, body, `method="PATCH"`)
}

func TestMetrics_Disabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Metrics = false })

	rec := do(t, srv.Handler(), http.MethodGet, MetricsPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"unknown endpoint"}`, rec.Body.String())
}

func TestServer_MaxConnections(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Host = "127.0.0.1"
		c.Port = 0
		c.MaxConnections = 1
	})
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	for range 3 {
		resp, err := http.Get(srv.URL() + "/api/persons")
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestServer_StopClosesLingeringConnections(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Host = "127.0.0.1"
		c.Port = 0
	})
	require.NoError(t, srv.Start())
	addr := srv.Addr()

	// A connection that never sends a request keeps Shutdown waiting.
	idle, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer idle.Close()

	// Accepts are in order, so once this request is answered the server
	// tracks the silent connection too.
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(srv.URL() + "/notes")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = srv.Stop(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, srv.IsRunning())

	require.NoError(t, idle.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = idle.Read(make([]byte, 1))
	assert.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection was left open")
	}

	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}
