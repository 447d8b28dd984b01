package validation

import "net/http"

// FieldError describes why a payload failed schema validation.
type FieldError struct {
	// Field is the dotted path of the offending value; empty for the root.
	Field string `json:"field,omitempty"`

	// Message is the reason reported by the schema validator.
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *FieldError) StatusCode() int {
	return http.StatusBadRequest
}
