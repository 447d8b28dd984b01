// Package stateful provides the in-memory record collections served by recordd.
//
// A Collection holds the records of one resource (notes, phonebook entries)
// in insertion order and performs every operation under its own RWMutex:
// reads proceed concurrently, writes are serialized, and no partially applied
// write is ever visible to another request.
//
// Core Types:
//
//   - Record: constraint satisfied by the stored value types (Note, Person)
//   - Collection: the store for one resource, owning id assignment and validation
//   - Kind: how payloads become records (decoding, defaults, merging, rules)
//   - Rule: a validation step run before a write is applied
//
// Write path:
//
//	rules (required fields, uniqueness) -> id generator -> append
//
// All three steps run under the collection's write lock, so a duplicate check
// and the insert that follows it cannot interleave with another writer.
//
// Usage:
//
//	kind := stateful.PersonKind(false)
//	people := stateful.NewCollection(kind.Singular, id.NewRandom(), kind.Rules...)
//	p, err := people.Insert(stateful.Person{Name: "Ada Lovelace", Number: "39-44-5323523"})
//	p, ok := people.Find(p.ID)
//	removed, ok := people.Delete(p.ID)
package stateful
