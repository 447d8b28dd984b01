package stateful

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind describes how request payloads become records of type T.
type Kind[T Record[T]] struct {
	// Singular names one record in messages, e.g. "note".
	Singular string
	// Schema is the JSON Schema every create or update payload must satisfy.
	Schema string
	// Decode builds a record from a create payload and applies defaults.
	// An empty payload decodes to the zero record with defaults applied.
	Decode func(payload []byte, now time.Time) (T, error)
	// Merge applies an update payload to a stored record.
	// A nil Merge means the kind does not support updates.
	Merge func(current T, payload []byte) (T, error)
	// Rules run before every write, in order.
	Rules []Rule[T]
	// Summary describes a collection of n records on the info page.
	Summary func(n int) string
}

const noteSchema = `{
  "type": "object",
  "properties": {
    "content":   {"type": "string"},
    "important": {"type": "boolean"},
    "date":      {"type": ["string", "null"]}
  }
}`

// NoteKind returns the kind for notes: content is required, important
// defaults to false and date defaults to the time of creation.
func NoteKind() Kind[Note] {
	return Kind[Note]{
		Singular: "note",
		Schema:   noteSchema,
		Decode: func(payload []byte, now time.Time) (Note, error) {
			var in struct {
				Content   string     `json:"content"`
				Important bool       `json:"important"`
				Date      *time.Time `json:"date"`
			}
			if err := decodePayload(payload, &in); err != nil {
				return Note{}, err
			}
			note := Note{
				Content:   in.Content,
				Important: in.Important,
				Date:      now.UTC(),
			}
			if in.Date != nil {
				note.Date = in.Date.UTC()
			}
			return note, nil
		},
		Rules: []Rule[Note]{
			Required(Field[Note]{Name: "content", Value: func(n Note) string { return n.Content }}),
		},
		Summary: func(n int) string {
			return fmt.Sprintf("Notebook has %d notes", n)
		},
	}
}

const personSchema = `{
  "type": "object",
  "properties": {
    "name":   {"type": "string"},
    "number": {"type": "string"}
  }
}`

// PersonKind returns the kind for phonebook entries. name is required and
// unique; number is required only when requireNumber is set. Updates replace
// only the fields that are present and non-empty in the payload.
func PersonKind(requireNumber bool) Kind[Person] {
	name := Field[Person]{Name: "name", Value: func(p Person) string { return p.Name }}
	number := Field[Person]{Name: "number", Value: func(p Person) string { return p.Number }}

	required := Required(name)
	if requireNumber {
		required = Required(name, number)
	}

	return Kind[Person]{
		Singular: "person",
		Schema:   personSchema,
		Decode: func(payload []byte, _ time.Time) (Person, error) {
			var in struct {
				Name   string `json:"name"`
				Number string `json:"number"`
			}
			if err := decodePayload(payload, &in); err != nil {
				return Person{}, err
			}
			return Person{Name: in.Name, Number: in.Number}, nil
		},
		Merge: func(current Person, payload []byte) (Person, error) {
			var in struct {
				Name   string `json:"name"`
				Number string `json:"number"`
			}
			if err := decodePayload(payload, &in); err != nil {
				return Person{}, err
			}
			if in.Name != "" {
				current.Name = in.Name
			}
			if in.Number != "" {
				current.Number = in.Number
			}
			return current, nil
		},
		Rules: []Rule[Person]{required, Unique(name)},
		Summary: func(n int) string {
			return fmt.Sprintf("Phonebook has info for %d people", n)
		},
	}
}

// decodePayload unmarshals a JSON payload, treating an empty payload as {}.
func decodePayload(payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &ValidationError{Message: "invalid payload: " + err.Error()}
	}
	return nil
}

// Seed fills c with seed entries as decoded from a config or seed file.
// Entries that carry an "id" keep it; the others get one from the
// collection's generator. Seed entries pass the same rules as any write.
func Seed[T Record[T]](c *Collection[T], kind Kind[T], entries []map[string]any, now time.Time) error {
	for i, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("seed entry %d: %w", i, err)
		}
		rec, err := kind.Decode(raw, now)
		if err != nil {
			return fmt.Errorf("seed entry %d: %w", i, err)
		}

		rawID, hasID := entry["id"]
		if !hasID {
			if _, err := c.Insert(rec); err != nil {
				return fmt.Errorf("seed entry %d: %w", i, err)
			}
			continue
		}

		key, err := seedKey(rawID)
		if err != nil {
			return fmt.Errorf("seed entry %d: %w", i, err)
		}
		if err := c.Restore(rec.WithKey(key)); err != nil {
			return fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return nil
}

// seedKey converts a decoded id value to an int.
func seedKey(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("id %d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("id %v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("id %q is not an integer", n)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("id %q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("id has unsupported type %T", v)
	}
}
