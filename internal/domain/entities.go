package domain

import "time"

// Document is the caller-owned record for an ingested document. The index
// itself never writes these; it hands back vector IDs for the caller to keep.
type Document struct {
	ID            string
	Filename      string
	FileType      string
	OwnerID       string
	AllowedScopes []string
	VectorIDs     []int
	SizeBytes     int
	CreatedAt     time.Time
}

// Agent is a registered principal. Credential material is out of scope;
// an agent record only carries identity and scopes.
type Agent struct {
	ID          string
	Name        string
	Scopes      []string
	Description string
	Active      bool
	CreatedAt   time.Time
}

// Principal is an already-authenticated caller: an identity plus the scopes
// it holds. Built from an Agent record or supplied directly.
type Principal struct {
	ID     string
	Scopes []string
}

// HasScope reports whether the principal holds the named scope.
func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Chunk is one window of a document's text, positioned by its zero-based
// index within the document's chunk sequence.
type Chunk struct {
	Text  string
	Index int
}

// VectorRecord pairs a stored vector with its chunk metadata. The raw vector
// is retained so the index can be rebuilt after a deletion without
// re-embedding anything.
type VectorRecord struct {
	VectorID   int
	DocumentID string
	Filename   string
	ChunkIndex int
	ChunkText  string
	Vector     []float32
}

// SearchResult is one ranked hit from the index.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkText  string  `json:"content"`
	Score      float64 `json:"similarity_score"`
}

// IndexStats summarizes the index contents.
type IndexStats struct {
	TotalVectors    int `json:"total_vectors"`
	Dimension       int `json:"embedding_dim"`
	UniqueDocuments int `json:"unique_documents"`
}
