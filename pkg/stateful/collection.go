package stateful

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/recordd/recordd/internal/id"
)

// Collection is the in-memory store for one resource.
type Collection[T Record[T]] struct {
	mu    sync.RWMutex
	kind  string
	items []T
	index keySet
	gen   id.Generator
	rules []Rule[T]
	obs   Observer
}

// NewCollection creates an empty collection. kind is the singular record
// name used in error messages. rules run in order before every write.
func NewCollection[T Record[T]](kind string, gen id.Generator, rules ...Rule[T]) *Collection[T] {
	if gen == nil {
		gen = id.Sequential{}
	}
	return &Collection[T]{
		kind:  kind,
		items: make([]T, 0),
		index: make(keySet),
		gen:   gen,
		rules: rules,
		obs:   NoopObserver{},
	}
}

// SetObserver installs hooks for writes. A nil observer disables them.
func (c *Collection[T]) SetObserver(obs Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if obs == nil {
		obs = NoopObserver{}
	}
	c.obs = obs
}

// Kind returns the singular record name.
func (c *Collection[T]) Kind() string {
	return c.kind
}

// Strategy returns the id strategy of the collection's generator.
func (c *Collection[T]) Strategy() string {
	return c.gen.Strategy()
}

// List returns a snapshot of all records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the record with the given id.
func (c *Collection[T]) Find(key int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[pos], true
}

// Count returns the number of records.
func (c *Collection[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Insert validates rec, assigns it a fresh id and appends it.
// Any id carried by rec is overwritten.
func (c *Collection[T]) Insert(rec T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.validate(rec, c.items); err != nil {
		c.obs.OnReject(c.kind, "create", err)
		return zero, err
	}

	key, err := c.gen.Next(c.index)
	if err != nil {
		capErr := &CapacityError{Kind: c.kind, Err: err}
		c.obs.OnReject(c.kind, "create", capErr)
		return zero, capErr
	}

	rec = rec.WithKey(key)
	c.index[key] = len(c.items)
	c.items = append(c.items, rec)
	c.obs.OnCreate(c.kind, key)
	return rec, nil
}

// Restore appends rec keeping its own id. It is used for seed data, where
// ids come from the seed source; a clash with a stored id is an error.
func (c *Collection[T]) Restore(rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := rec.Key()
	if _, exists := c.index[key]; exists {
		return fmt.Errorf("duplicate %s id %d", c.kind, key)
	}
	if err := c.validate(rec, c.items); err != nil {
		return err
	}

	c.index[key] = len(c.items)
	c.items = append(c.items, rec)
	return nil
}

// Delete removes the record with the given id and returns it.
// Deleting an absent id is a no-op that reports false.
func (c *Collection[T]) Delete(key int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[key]
	if !ok {
		c.obs.OnDelete(c.kind, key, false)
		var zero T
		return zero, false
	}

	removed := c.items[pos]
	c.items = slices.Delete(c.items, pos, pos+1)
	c.reindex()
	c.obs.OnDelete(c.kind, key, true)
	return removed, true
}

// Replace swaps the record with the given id for rec, keeping the id.
func (c *Collection[T]) Replace(key int, rec T) (T, error) {
	return c.Update(key, func(T) (T, error) { return rec, nil })
}

// Update applies fn to the record with the given id and stores the result.
// fn, validation and the write all happen under one lock.
func (c *Collection[T]) Update(key int, fn func(current T) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	pos, ok := c.index[key]
	if !ok {
		return zero, &NotFoundError{Kind: c.kind, ID: strconv.Itoa(key)}
	}

	next, err := fn(c.items[pos])
	if err != nil {
		c.obs.OnReject(c.kind, "update", err)
		return zero, err
	}
	next = next.WithKey(key)

	others := make([]T, 0, len(c.items)-1)
	others = append(others, c.items[:pos]...)
	others = append(others, c.items[pos+1:]...)
	if err := c.validate(next, others); err != nil {
		c.obs.OnReject(c.kind, "update", err)
		return zero, err
	}

	c.items[pos] = next
	c.obs.OnUpdate(c.kind, key)
	return next, nil
}

// Clear removes every record and returns how many were removed.
func (c *Collection[T]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	c.items = make([]T, 0)
	c.index = make(keySet)
	return n
}

// validate runs every rule. Callers hold the write lock.
func (c *Collection[T]) validate(rec T, existing []T) error {
	for _, rule := range c.rules {
		if err := rule(rec, existing); err != nil {
			return err
		}
	}
	return nil
}

// reindex rebuilds the id -> position map after a removal.
func (c *Collection[T]) reindex() {
	c.index = make(keySet, len(c.items))
	for pos, rec := range c.items {
		c.index[rec.Key()] = pos
	}
}

// keySet maps ids to positions in items and serves as the id.Set view
// handed to generators.
type keySet map[int]int

func (k keySet) Contains(key int) bool {
	_, ok := k[key]
	return ok
}

func (k keySet) Len() int {
	return len(k)
}

func (k keySet) Max() int {
	highest, first := 0, true
	for key := range k {
		if first || key > highest {
			highest, first = key, false
		}
	}
	return highest
}
