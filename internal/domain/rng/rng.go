// Package rng provides the deterministic random source used by the match engine.
//
// Determinism:
// A Source is a pure function of its seed. It wraps the PCG generator from
// math/rand/v2, whose algorithm and output are fixed by the standard library,
// so the same seed yields the same stream on every platform and process run.
// Nothing in this package reads global randomness or the wall clock.
//
// Streams are unbounded; there is no exhaustion error.
package rng

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// pcgStream is the fixed PCG stream selector. Only the seed varies between matches.
const pcgStream uint64 = 0x9e3779b97f4a7c15

// Source produces reproducible draws for one match. It is not safe for
// concurrent use; each match owns its own Source.
type Source struct {
	r *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewPCG(uint64(seed), pcgStream))} //nolint:gosec // deterministic simulation, not crypto
}

// Float64 returns a uniform draw in [0,1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// IntN returns a uniform draw in [0,n). It returns 0 when n <= 0.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Chance reports whether an event with probability p happens. Probabilities
// outside (0,1) are decided without consuming a draw.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never chosen. When no weight is positive the
// first index is returned and no draw is consumed.
func (s *Source) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}

	x := s.r.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x < w {
			return i
		}
		x -= w
		last = i
	}
	// Rounding can leave x marginally above the final weight.
	return last
}

// DeriveSeed maps a match identifier to a seed so that independently
// scheduled matches own independent streams.
func DeriveSeed(matchID string) int64 {
	return int64(xxhash.Sum64String(matchID)) //nolint:gosec // wrap-around is intended
}
