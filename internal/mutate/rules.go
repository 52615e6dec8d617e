package mutate

import (
	"math/rand"
	"time"
)

// Rule is a named probabilistic mutation rule evaluated against the shared
// random source.
type Rule struct {
	Name        string
	Probability float64
}

// Fires reports whether the rule applies on this draw. A probability of 1 or
// more always fires and a probability of 0 or less never fires; neither
// consumes randomness.
func (r Rule) Fires(rng *rand.Rand) bool {
	if r.Probability >= 1 {
		return true
	}
	if r.Probability <= 0 {
		return false
	}
	return rng.Float64() < r.Probability
}

// NewRand returns the random source for a run. With fixed set the stream is
// reproducible from seed; otherwise it is seeded from the clock.
func NewRand(seed int64, fixed bool) *rand.Rand {
	if !fixed {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
