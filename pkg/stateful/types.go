package stateful

import "time"

// Record is implemented by the value types stored in a Collection.
// WithKey returns a copy of the record carrying the given id.
type Record[T any] interface {
	Key() int
	WithKey(id int) T
}

// Note is a short text with an importance flag.
type Note struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
	Important bool      `json:"important"`
}

// Key implements Record.
func (n Note) Key() int { return n.ID }

// WithKey implements Record.
func (n Note) WithKey(id int) Note {
	n.ID = id
	return n
}

// Person is a phonebook entry.
type Person struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Key implements Record.
func (p Person) Key() int { return p.ID }

// WithKey implements Record.
func (p Person) WithKey(id int) Person {
	p.ID = id
	return p
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
