package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/recordd/recordd/pkg/httputil"
	"github.com/recordd/recordd/pkg/validation"
)

// StageBody is the name of the body decoding stage.
const StageBody = "body"

// RequestBody is the request payload as read by the body stage.
type RequestBody struct {
	// Raw holds the bytes read from the request.
	Raw []byte
	// JSON reports whether the request declared a JSON content type.
	JSON bool
	// Value is the decoded JSON document, nil when JSON is false or Raw is empty.
	Value any
}

// Payload returns the raw JSON payload, or nil when the request carried no
// JSON body. Non-JSON bodies are ignored by the resource handlers.
func (b *RequestBody) Payload() []byte {
	if b == nil || !b.JSON {
		return nil
	}
	return b.Raw
}

// valueMap returns the decoded body when it is a JSON object.
func (b *RequestBody) valueMap() (map[string]any, bool) {
	if b == nil {
		return nil, false
	}
	m, ok := b.Value.(map[string]any)
	return m, ok
}

type bodyKey struct{}

// BodyFromContext returns the body stored by the body stage, or nil.
func BodyFromContext(ctx context.Context) *RequestBody {
	b, _ := ctx.Value(bodyKey{}).(*RequestBody)
	return b
}

// BodyStage reads up to maxBytes of the request body and decodes JSON
// bodies into the request context. Oversized bodies get 413 and malformed
// JSON gets 400 before any handler runs.
func BodyStage(maxBytes int64) Stage {
	return Stage{
		Name: StageBody,
		Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body := &RequestBody{JSON: isJSON(r.Header.Get("Content-Type"))}

				if r.Body != nil && r.Body != http.NoBody {
					raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
					if err != nil {
						var tooLarge *http.MaxBytesError
						if errors.As(err, &tooLarge) {
							httputil.WriteMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
							return
						}
						httputil.WriteMessage(w, http.StatusBadRequest, "failed to read request body")
						return
					}
					body.Raw = raw
					r.Body = io.NopCloser(bytes.NewReader(raw))
				}

				if body.JSON && len(bytes.TrimSpace(body.Raw)) > 0 {
					v, err := validation.Decode(body.Raw)
					if err != nil {
						httputil.WriteMessage(w, http.StatusBadRequest, "malformed JSON")
						return
					}
					body.Value = v
				}

				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, body)))
			})
		},
	}
}

// isJSON reports whether a Content-Type header names JSON, including
// structured suffixes such as application/merge-patch+json.
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
