package verification

import "math/rand/v2"

// Code bounds, inclusive.
const (
	MinCode = 10000
	MaxCode = 99999
)

// Generator issues numeric verification codes.
type Generator interface {
	Next() int
}

// RandomGenerator draws codes uniformly from [MinCode, MaxCode].
// Not cryptographically secure.
type RandomGenerator struct{}

// Next returns a fresh code.
func (RandomGenerator) Next() int {
	return MinCode + rand.IntN(MaxCode-MinCode+1)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() int

// Next calls f.
func (f GeneratorFunc) Next() int {
	return f()
}
