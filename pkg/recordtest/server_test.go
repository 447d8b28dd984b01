package recordtest

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ResourceBuilder(t *testing.T) {
	srv := New(t)
	srv.Resource("note", "/todo").
		Seed(map[string]any{"content": "a"}, map[string]any{"content": "b"}).
		CreateStatus(http.StatusCreated).
		Add()
	url := srv.Start()
	assert.Equal(t, url, srv.Start())
	assert.Equal(t, url, srv.URL())

	resp, err := srv.Client().Post(url+"/todo", "application/json", strings.NewReader(`{"content":"c"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	records := srv.Records("/todo")
	require.Len(t, records, 3)
	assert.Equal(t, float64(2), records[2]["id"])

	srv.AssertCount(t, "/todo", 3)
	srv.AssertCalled(t, http.MethodPost, "/todo")
	srv.AssertNotCalled(t, http.MethodGet, "/todo")

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	reqs[0].AssertJSONBody(t, map[string]any{"content": "c"})
	reqs[0].AssertStatus(t, http.StatusCreated)
}

func TestServer_Default(t *testing.T) {
	srv := Default(t)
	url := srv.Start()
	require.NotNil(t, srv.Engine())

	for _, id := range []string{"1", "2", "nope"} {
		resp, err := http.Get(url + "/api/persons/" + id)
		require.NoError(t, err)
		resp.Body.Close()
	}

	srv.AssertCalledTimes(t, http.MethodGet, "/api/persons/:id", 3)
	srv.AssertCount(t, "/api/persons", 4)

	srv.Reset()
	assert.Empty(t, srv.Requests())
}

func TestMatchesPath(t *testing.T) {
	tests := []struct {
		actual, pattern string
		want            bool
	}{
		{"/notes", "/notes", true},
		{"/notes/3", "/notes/:id", true},
		{"/notes/", "/notes/:id", false},
		{"/notes/3/x", "/notes/:id", false},
		{"/api/persons/3", "/notes/:id", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPath(tt.actual, tt.pattern), "%s vs %s", tt.actual, tt.pattern)
	}
}
