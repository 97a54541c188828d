// Package embed provides the Embedder contract (spec.md §4.4) and its
// implementations: a deterministic local provider used by default and in
// tests, and an optional OpenAI-backed provider for real embeddings.
package embed

import (
	"context"
	"hash/fnv"
)

// Dimensions is the fixed embedding dimension spec.md requires: a
// MiniLM-class, cosine-space vector size.
const Dimensions = 384

// MaxInputChars is the character cap applied before embedding, per spec.md
// §4.4's "≤512 chars recommended" guidance.
const MaxInputChars = 512

const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1442695040888963407
	seedShift            = 33
	floatScale           = 0x40000000
	sqrtIterations       = 10
)

// LocalProvider produces deterministic embeddings without any external
// network dependency: an FNV-1a hash of the input seeds a linear congruential
// generator whose output is L2-normalized into a unit vector. Two calls with
// the same text always produce the same vector, satisfying spec.md's
// determinism requirement; it has no notion of semantic similarity beyond
// matching text, so it is meant for tests and as the guaranteed-available
// fallback rather than for production-quality retrieval.
type LocalProvider struct {
	dims int
}

// NewLocalProvider builds a LocalProvider producing Dimensions-length
// vectors.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{dims: Dimensions}
}

// Dim returns the embedding dimension.
func (p *LocalProvider) Dim() int {
	return p.dims
}

// Embed truncates text to MaxInputChars and returns a deterministic,
// L2-normalized vector.
func (p *LocalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dims)
	state := seed

	for i := range vec {
		state = state*lcgMultiplier + lcgIncrement
		shifted := state >> seedShift
		vec[i] = float32(shifted)/floatScale - 1.0
	}

	normalizeVector(vec)

	return vec, nil
}

func normalizeVector(vec []float32) {
	var sumSquares float32

	for _, v := range vec {
		sumSquares += v * v
	}

	if sumSquares == 0 {
		return
	}

	norm := sqrt32(sumSquares)

	for i := range vec {
		vec[i] /= norm
	}
}

// sqrt32 computes a square root via Newton's method, avoiding a dependency
// on math.Sqrt's float64 round trip for a float32 input.
func sqrt32(x float32) float32 {
	if x == 0 {
		return 0
	}

	guess := x

	for range sqrtIterations {
		guess = 0.5 * (guess + x/guess)
	}

	return guess
}
