package id

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrCapacityExceeded is returned when a generator gives up looking for a free id.
var ErrCapacityExceeded = errors.New("id capacity exceeded")

// Strategy names accepted by New.
const (
	StrategySequential = "max"
	StrategyRandom     = "random"
)

// Defaults for the random strategy.
const (
	DefaultRandomSpace    = 100
	DefaultRandomAttempts = 64
)

// Set is the read-only view of the ids already assigned in a collection.
type Set interface {
	// Contains reports whether id is in use.
	Contains(id int) bool
	// Len returns the number of ids in use.
	Len() int
	// Max returns the largest id in use. Only meaningful when Len() > 0.
	Max() int
}

// Generator produces an id that is not contained in taken.
type Generator interface {
	Next(taken Set) (int, error)
	// Strategy returns the strategy name, for logs and diagnostics.
	Strategy() string
}

// Sequential assigns 1 + max(existing), or 0 when nothing is assigned yet.
type Sequential struct{}

// Next implements Generator.
func (Sequential) Next(taken Set) (int, error) {
	if taken.Len() == 0 {
		return 0, nil
	}
	highest := taken.Max()
	if highest == math.MaxInt {
		return 0, fmt.Errorf("%w: largest id already in use", ErrCapacityExceeded)
	}
	return highest + 1, nil
}

// Strategy implements Generator.
func (Sequential) Strategy() string { return StrategySequential }

// Random draws ids uniformly from a growing range.
//
// The zero value is not usable; construct with NewRandom.
type Random struct {
	mu          sync.Mutex
	rng         *rand.Rand
	space       int
	maxAttempts int
}

// RandomOption configures a Random generator.
type RandomOption func(*Random)

// WithSpace sets the initial draw range [1, space].
func WithSpace(space int) RandomOption {
	return func(r *Random) {
		if space > 0 {
			r.space = space
		}
	}
}

// WithMaxAttempts sets how many draws are made before giving up.
func WithMaxAttempts(n int) RandomOption {
	return func(r *Random) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithSource replaces the random source. Tests use a seeded PCG.
func WithSource(src rand.Source) RandomOption {
	return func(r *Random) {
		if src != nil {
			r.rng = rand.New(src)
		}
	}
}

// NewRandom creates a Random generator.
func NewRandom(opts ...RandomOption) *Random {
	r := &Random{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		space:       DefaultRandomSpace,
		maxAttempts: DefaultRandomAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next implements Generator. Every collision doubles the draw range for the
// next attempt; the range itself is not remembered across calls.
func (r *Random) Next(taken Set) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	space := r.space
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		candidate := 1 + r.rng.IntN(space)
		if !taken.Contains(candidate) {
			return candidate, nil
		}
		if space <= math.MaxInt/2 {
			space *= 2
		}
	}
	return 0, fmt.Errorf("%w: no free id after %d attempts", ErrCapacityExceeded, r.maxAttempts)
}

// Strategy implements Generator.
func (r *Random) Strategy() string { return StrategyRandom }

// New returns the generator for a strategy name. An empty name selects Sequential.
func New(strategy string, opts ...RandomOption) (Generator, error) {
	switch strings.ToLower(strategy) {
	case "", StrategySequential, "sequential":
		return Sequential{}, nil
	case StrategyRandom:
		return NewRandom(opts...), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q (want %q or %q)", strategy, StrategySequential, StrategyRandom)
	}
}

// Request generates a request correlation id (UUID v4).
func Request() string {
	return uuid.NewString()
}
