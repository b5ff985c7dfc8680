package matcher

import (
	"math/rand/v2"

	"chronoscope-go/internal/common"
)

type Option func(*Matcher)

// WithRand fixes the random source used by the fallback path
func WithRand(rng *rand.Rand) Option {
	return func(m *Matcher) {
		m.rng = rng
	}
}

// WithTopK sets how many matches are returned as alternatives
func WithTopK(k int) Option {
	return func(m *Matcher) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithIndexParams selects the index implementation. Dim is taken from the model.
func WithIndexParams(params common.IndexParams) Option {
	return func(m *Matcher) {
		m.params = params
	}
}
