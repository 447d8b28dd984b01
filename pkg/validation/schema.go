package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles src as a draft 2020-12 schema. name identifies the
// schema in errors and must be unique per compiler call.
func Compile(name, src string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: compiled}, nil
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// built into the binary.
func MustCompile(name, src string) *Schema {
	s, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name the schema was compiled with.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks a decoded JSON value. Numbers must be float64 or
// json.Number, as produced by encoding/json.
func (s *Schema) Validate(v any) error {
	err := s.schema.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &FieldError{Message: err.Error()}
	}
	leaf := firstLeaf(ve)
	return &FieldError{
		Field:   fieldFromPointer(leaf.InstanceLocation),
		Message: leaf.Message,
	}
}

// ValidateJSON decodes payload and validates the result. An empty payload
// is treated as an empty object.
func (s *Schema) ValidateJSON(payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return s.Validate(map[string]any{})
	}
	v, err := Decode(payload)
	if err != nil {
		return &FieldError{Message: "malformed JSON"}
	}
	return s.Validate(v)
}

// Decode unmarshals payload keeping numbers as json.Number, which is the
// representation the schema validator expects for exact comparisons.
func Decode(payload []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// Anything but EOF after the value, including a stray '}' or ']', is an error.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// firstLeaf walks the cause tree and returns the first error with no causes.
func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

// fieldFromPointer turns a JSON Pointer such as "/address/city" into
// "address.city".
func fieldFromPointer(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
