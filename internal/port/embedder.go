package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, each of width Dimension.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension. Fixed for the
	// lifetime of the embedder; a mismatch with the index dimension is a
	// configuration error, not a per-call one.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
