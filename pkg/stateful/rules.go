package stateful

import "strings"

// Rule checks a candidate record against the records already stored.
// existing never contains the record being replaced.
type Rule[T any] func(candidate T, existing []T) error

// Field names a string field of a record and how to read it.
type Field[T any] struct {
	Name  string
	Value func(T) string
}

// Required rejects candidates where any of fields is empty. All missing
// fields are reported together, e.g. "name and number missing".
func Required[T any](fields ...Field[T]) Rule[T] {
	return func(candidate T, _ []T) error {
		var missing []string
		for _, f := range fields {
			if f.Value(candidate) == "" {
				missing = append(missing, f.Name)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		return &ValidationError{
			Field:   missing[0],
			Message: strings.Join(missing, " and ") + " missing",
		}
	}
}

// Unique rejects candidates whose field value exactly matches (case-sensitive)
// that of an existing record. This is a linear scan: O(n) per write.
func Unique[T any](f Field[T]) Rule[T] {
	return func(candidate T, existing []T) error {
		v := f.Value(candidate)
		for _, rec := range existing {
			if f.Value(rec) == v {
				return &DuplicateError{Field: f.Name, Value: v}
			}
		}
		return nil
	}
}
