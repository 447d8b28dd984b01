package recordtest

import (
	"encoding/json"
	"reflect"
	"testing"
)

// Request is one request handled by a Server.
type Request struct {
	Method string
	Path   string
	Body   string
	Status int
}

// AssertJSONBody asserts that the request body equals expected as JSON.
// expected may be a JSON string, []byte or any value encodable as JSON.
func (r Request) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var want, got any
	var data []byte
	switch v := expected.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
	}
	if err := json.Unmarshal(data, &want); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(got, want) {
		wantJSON, _ := json.MarshalIndent(want, "", "  ")
		gotJSON, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s", wantJSON, gotJSON)
	}
}

// AssertStatus asserts the response status of the request.
func (r Request) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Status != expected {
		t.Errorf("%s %s: expected status %d, got %d", r.Method, r.Path, expected, r.Status)
	}
}
