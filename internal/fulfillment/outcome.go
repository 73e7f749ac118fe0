package fulfillment

import "math/rand"

// OutcomeSource decides whether a fulfillment attempt succeeds given a
// success probability. Injectable so tests can force deterministic
// outcomes.
type OutcomeSource interface {
	Succeed(p float64) bool
}

// RandomSource draws uniform random outcomes.
type RandomSource struct{}

func (RandomSource) Succeed(p float64) bool { return rand.Float64() < p }
