// Package rng provides the seeded random source owned by every tile map.
//
// A Source is a position-advancing stream: each call consumes exactly one
// draw from the underlying PCG generator, including calls whose result is
// discarded by rejection sampling. Two sources with the same seed that see
// the same sequence of calls return identical values, which is what makes
// map generation reproducible.
//
// A Source is not safe for concurrent use. Each generated map owns its own.
package rng

import "math/rand/v2"

// Source is a seeded, draw-counting random number stream.
type Source struct {
	r     *rand.Rand
	seed  uint64
	draws uint64
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{
		r:    rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 { return s.seed }

// Draws returns the number of values drawn so far.
func (s *Source) Draws() uint64 { return s.draws }

// Float returns a value in [0, 1).
func (s *Source) Float() float64 {
	s.draws++
	return s.r.Float64()
}

// FloatInRange returns a value uniformly distributed in [lo, hi].
func (s *Source) FloatInRange(lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.Float()*(hi-lo)
}

// IntLessThan returns a value in [0, n). A non-positive n yields 0 but still
// consumes a draw.
func (s *Source) IntLessThan(n int) int {
	s.draws++
	if n <= 0 {
		s.r.Uint64()
		return 0
	}
	return s.r.IntN(n)
}

// IntInRange returns a value in [lo, hi], both inclusive.
func (s *Source) IntInRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.IntLessThan(hi-lo+1)
}

// Chance reports whether a Bernoulli trial with probability p succeeds.
// It always consumes a draw, even for p <= 0 or p >= 1.
func (s *Source) Chance(p float64) bool {
	return s.Float() < p
}

// CoinFlip is Chance(0.5).
func (s *Source) CoinFlip() bool {
	return s.Chance(0.5)
}
