package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Record is one record as returned by the server. Numbers are kept as
// json.Number so ids print exactly.
type Record map[string]any

// ID returns the record id, or "" when the record has none.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// APIError is returned when the server answers with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to a recordd server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the server at baseURL,
// e.g. "http://localhost:3001".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every record of the collection at path.
func (c *Client) List(ctx context.Context, path string) ([]Record, error) {
	var out []Record
	if err := c.do(ctx, http.MethodGet, collectionPath(path), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one record.
func (c *Client) Get(ctx context.Context, path string, id int) (Record, error) {
	var out Record
	if err := c.do(ctx, http.MethodGet, itemPath(path, id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new record. The result is nil when the server is
// configured to answer creates with 204 No Content.
func (c *Client) Create(ctx context.Context, path string, fields map[string]any) (Record, error) {
	var out Record
	if err := c.do(ctx, http.MethodPost, collectionPath(path), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges fields into a stored record.
func (c *Client) Update(ctx context.Context, path string, id int, fields map[string]any) (Record, error) {
	var out Record
	if err := c.do(ctx, http.MethodPut, itemPath(path, id), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record. Deleting an absent id succeeds.
func (c *Client) Delete(ctx context.Context, path string, id int) error {
	return c.do(ctx, http.MethodDelete, itemPath(path, id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

// collectionPath normalizes a user supplied collection path such as
// "notes" or "/api/persons/" to "/notes" and "/api/persons".
func collectionPath(p string) string {
	p = "/" + strings.Trim(p, "/")
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func itemPath(p string, id int) string {
	return collectionPath(p) + "/" + strconv.Itoa(id)
}
