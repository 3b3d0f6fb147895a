package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"scoperag/internal/access"
	"scoperag/internal/adapter/chunker"
	"scoperag/internal/domain"
	"scoperag/internal/index"
	"scoperag/internal/port"
)

// Scopes required by the write and read paths.
const (
	ScopeWrite = "write"
	ScopeRead  = "read"
)

var (
	// ErrMissingScope is returned when the principal lacks the scope an
	// operation requires.
	ErrMissingScope = errors.New("principal lacks required scope")
	// ErrNotOwner is returned when a non-owner tries to delete a document.
	ErrNotOwner = errors.New("only the owner can delete a document")
	// ErrEmptyDocument is returned when ingestion produces no chunks.
	ErrEmptyDocument = errors.New("document has no indexable content")
)

// Coordinator orchestrates the retrieval pipeline: chunk, embed and index on
// ingest; resolve access, embed and search on query. It owns the index
// handle; document records live in the store and are only ever written here
// with the vector IDs the index hands back.
type Coordinator struct {
	chunker  *chunker.WindowChunker
	embedder port.Embedder
	idx      *index.Flat
	docs     port.DocumentStore
}

// NewCoordinator wires the pipeline. The embedder and index must agree on
// dimensionality; a mismatch is a configuration error caught here, at
// startup, rather than on the first ingest.
func NewCoordinator(c *chunker.WindowChunker, embedder port.Embedder, idx *index.Flat, docs port.DocumentStore) (*Coordinator, error) {
	if embedder.Dimension() != idx.Dimension() {
		return nil, fmt.Errorf("embedder dimension %d does not match index dimension %d",
			embedder.Dimension(), idx.Dimension())
	}
	return &Coordinator{
		chunker:  c,
		embedder: embedder,
		idx:      idx,
		docs:     docs,
	}, nil
}

// IngestResult reports what an ingest produced.
type IngestResult struct {
	Document    domain.Document
	ChunkCount  int
	VectorCount int
}

// Ingest chunks content, embeds the chunks in one batch, adds the vectors to
// the index and stores the document record with the returned vector IDs.
// Requires the write scope.
func (co *Coordinator) Ingest(p domain.Principal, filename, fileType, content string, allowedScopes []string) (*IngestResult, error) {
	if !p.HasScope(ScopeWrite) {
		return nil, fmt.Errorf("%w: %s", ErrMissingScope, ScopeWrite)
	}

	chunks := co.chunker.Chunk(content)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := co.embedder.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	doc := domain.Document{
		ID:            uuid.NewString(),
		Filename:      filename,
		FileType:      fileType,
		OwnerID:       p.ID,
		AllowedScopes: allowedScopes,
		SizeBytes:     len(content),
		CreatedAt:     time.Now().UTC(),
	}

	vectorIDs, err := co.idx.Add(vectors, doc.ID, doc.Filename, texts)
	if err != nil {
		return nil, fmt.Errorf("indexing failed: %w", err)
	}
	doc.VectorIDs = vectorIDs

	if err := co.docs.PutDoc(doc); err != nil {
		// Roll the index back so it does not hold vectors for a record
		// that was never stored.
		co.idx.DeleteDocument(doc.ID)
		return nil, fmt.Errorf("failed to store document record: %w", err)
	}

	return &IngestResult{
		Document:    doc,
		ChunkCount:  len(chunks),
		VectorCount: len(vectorIDs),
	}, nil
}

// Delete removes a document and all of its vectors. Only the owner may
// delete; the index is rebuilt without the document's records.
func (co *Coordinator) Delete(p domain.Principal, documentID string) (domain.Document, error) {
	doc, err := co.docs.GetDoc(documentID)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.OwnerID != p.ID {
		return domain.Document{}, ErrNotOwner
	}

	if _, err := co.idx.DeleteDocument(documentID); err != nil {
		return domain.Document{}, fmt.Errorf("failed to remove vectors: %w", err)
	}
	if err := co.docs.DeleteDoc(documentID); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// List returns the documents visible to the principal.
func (co *Coordinator) List(p domain.Principal) ([]domain.Document, error) {
	docs, err := co.docs.ListDocs()
	if err != nil {
		return nil, err
	}
	return access.FilterDocs(p, docs), nil
}

// Stats combines index totals with the store's document count.
func (co *Coordinator) Stats() (domain.IndexStats, error) {
	return co.idx.Stats(), nil
}
