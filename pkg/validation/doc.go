// Package validation checks the shape of decoded JSON payloads against
// JSON Schema documents (draft 2020-12).
//
// A Schema is compiled once, at server start, and is safe for concurrent
// use. Validation failures are reported as *FieldError values naming the
// first offending field:
//
//	schema, err := validation.Compile("person", `{"type":"object"}`)
//	if err != nil {
//		return err
//	}
//	if err := schema.Validate(decoded); err != nil {
//		// err.Error() == "name: expected string, but got number"
//	}
package validation
