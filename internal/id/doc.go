// Package id assigns identifiers to records and requests.
//
// Record identifiers are small integers, unique within one collection. Two
// interchangeable strategies are provided:
//
//   - Sequential: one past the largest id in use, or 0 for an empty collection.
//     Deterministic and collision-free by construction, O(n) per call.
//   - Random: a uniform draw from [1, space]. On collision the space doubles
//     and the draw is repeated, up to a fixed number of attempts after which
//     ErrCapacityExceeded is returned.
//
// Generators never mutate the collection. Callers must hold whatever lock
// protects the Set for the duration of Next and the subsequent insert.
//
// Request returns a UUID v4 used to correlate log lines with responses.
package id
