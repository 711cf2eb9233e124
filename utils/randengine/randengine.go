// Package randengine wraps golang.org/x/exp/rand with the helpers the
// simulator needs for spawn decisions.
package randengine

import (
	"flag"
	"log"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset applied to every engine")
)

// Engine is a seeded random source. The plain methods are not safe for
// concurrent use; every agent owns its own engine.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates an engine from seed plus the process-wide seed offset.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution draws an index with probability proportional to
// its weight. Not safe for concurrent use.
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue returns true with probability p. Not safe for concurrent use.
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// IntnSafe returns a random int in [0, n) and may be called from
// multiple goroutines.
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// Float64Safe returns a random float in [0, 1) and may be called from
// multiple goroutines.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}
