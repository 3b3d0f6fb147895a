package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// MockEmbedder produces deterministic vectors derived from a hash of the
// input text. Identical texts map to identical vectors, so tests and offline
// runs get stable, reproducible rankings without a model.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.hashVector(text)
	}
	return embeddings, nil
}

func (e *MockEmbedder) hashVector(text string) []float32 {
	vec := make([]float32, e.dimension)
	seed := sha256.Sum256([]byte(text))

	// Stretch the digest across the vector by re-hashing per block of
	// eight components.
	block := seed[:]
	for i := 0; i < e.dimension; i++ {
		if i%8 == 0 && i > 0 {
			next := sha256.Sum256(block)
			block = next[:]
		}
		bits := binary.LittleEndian.Uint32(block[(i%8)*4 : (i%8)*4+4])
		// Map to [-1, 1).
		vec[i] = float32(bits)/float32(math.MaxUint32)*2 - 1
	}
	return vec
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
