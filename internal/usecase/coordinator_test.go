package usecase

import (
	"errors"
	"path/filepath"
	"testing"

	"scoperag/internal/adapter/chunker"
	"scoperag/internal/adapter/embedding"
	"scoperag/internal/adapter/store"
	"scoperag/internal/domain"
	"scoperag/internal/index"
	"scoperag/internal/port"
)

const testDim = 32

// countingEmbedder wraps an embedder and records how many Embed calls it saw.
type countingEmbedder struct {
	port.Embedder
	calls int
}

func (c *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	c.calls++
	return c.Embedder.Embed(texts)
}

func newTestCoordinator(t *testing.T) (*Coordinator, *countingEmbedder) {
	t.Helper()

	ch, err := chunker.NewWindowChunker(40, 10)
	if err != nil {
		t.Fatal(err)
	}
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(testDim)}
	docs, err := store.NewBoltStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { docs.Close() })

	co, err := NewCoordinator(ch, emb, index.NewFlat(testDim), docs)
	if err != nil {
		t.Fatal(err)
	}
	return co, emb
}

func TestNewCoordinatorDimensionMismatch(t *testing.T) {
	ch, err := chunker.NewWindowChunker(40, 10)
	if err != nil {
		t.Fatal(err)
	}
	docs, err := store.NewBoltStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer docs.Close()

	_, err = NewCoordinator(ch, embedding.NewMockEmbedder(16), index.NewFlat(32), docs)
	if err == nil {
		t.Error("expected configuration error for mismatched dimensions")
	}
}

func TestIngestRequiresWriteScope(t *testing.T) {
	co, _ := newTestCoordinator(t)

	reader := domain.Principal{ID: "agent-r", Scopes: []string{"read"}}
	_, err := co.Ingest(reader, "doc.txt", "txt", "some content", nil)
	if !errors.Is(err, ErrMissingScope) {
		t.Errorf("expected ErrMissingScope, got %v", err)
	}
}

func TestIngestAndQueryRoundTrip(t *testing.T) {
	co, _ := newTestCoordinator(t)

	writer := domain.Principal{ID: "agent-a", Scopes: []string{"read", "write"}}
	res, err := co.Ingest(writer, "notes.txt", "txt",
		"The gateway issues short lived credentials to registered agents and records every issuance.",
		[]string{"read"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunkCount == 0 || res.VectorCount != res.ChunkCount {
		t.Fatalf("unexpected ingest result: %+v", res)
	}
	if len(res.Document.VectorIDs) != res.VectorCount {
		t.Errorf("document record missing vector ids: %+v", res.Document)
	}

	out, err := co.Query(writer, "credentials for agents", 3)
	if err != nil {
		t.Fatal(err)
	}
	if out.Total == 0 {
		t.Fatal("expected results for the ingesting owner")
	}
	if out.Results[0].DocumentID != res.Document.ID {
		t.Errorf("expected results from ingested document, got %s", out.Results[0].DocumentID)
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	co, _ := newTestCoordinator(t)

	writer := domain.Principal{ID: "agent-a", Scopes: []string{"write"}}
	_, err := co.Ingest(writer, "empty.txt", "txt", "   \n  ", nil)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestQueryRequiresReadScope(t *testing.T) {
	co, _ := newTestCoordinator(t)

	writerOnly := domain.Principal{ID: "agent-w", Scopes: []string{"write"}}
	_, err := co.Query(writerOnly, "anything", 3)
	if !errors.Is(err, ErrMissingScope) {
		t.Errorf("expected ErrMissingScope, got %v", err)
	}
}

func TestQueryAccessIsolation(t *testing.T) {
	co, _ := newTestCoordinator(t)

	// Document owned by A, shared only with holders of "write".
	owner := domain.Principal{ID: "agent-a", Scopes: []string{"read", "write"}}
	res, err := co.Ingest(owner, "secret.txt", "txt",
		"rotation schedule for signing keys kept in the vault", []string{"write"})
	if err != nil {
		t.Fatal(err)
	}

	// B holds only "read": no overlap with {"write"}, not the owner.
	outsider := domain.Principal{ID: "agent-b", Scopes: []string{"read"}}
	out, err := co.Query(outsider, "signing keys", 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range out.Results {
		if r.DocumentID == res.Document.ID {
			t.Fatalf("inaccessible document leaked into results: %+v", r)
		}
	}
	if out.Total != 0 {
		t.Errorf("expected no visible documents for outsider, got %d results", out.Total)
	}

	// The owner sees it regardless of scopes.
	out, err = co.Query(owner, "signing keys", 5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Total == 0 {
		t.Error("owner could not retrieve their own document")
	}
}

func TestQueryEmptyAllowedSetShortCircuits(t *testing.T) {
	co, emb := newTestCoordinator(t)

	owner := domain.Principal{ID: "agent-a", Scopes: []string{"read", "write"}}
	if _, err := co.Ingest(owner, "doc.txt", "txt", "indexed content nobody else can see", []string{"admin"}); err != nil {
		t.Fatal(err)
	}

	emb.calls = 0
	outsider := domain.Principal{ID: "agent-b", Scopes: []string{"read"}}
	out, err := co.Query(outsider, "anything at all", 5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Total != 0 || len(out.Results) != 0 {
		t.Errorf("expected empty result, got %+v", out)
	}
	// Short-circuit: with nothing visible the query is never even embedded.
	if emb.calls != 0 {
		t.Errorf("expected no embed calls for empty allowed set, got %d", emb.calls)
	}
}

func TestQueryAcrossVisibleDocuments(t *testing.T) {
	co, _ := newTestCoordinator(t)

	// D1 owned by A with scopes {"read"}, D2 owned by B with {"write"}.
	a := domain.Principal{ID: "agent-a", Scopes: []string{"write"}}
	b := domain.Principal{ID: "agent-b", Scopes: []string{"write"}}

	d1, err := co.Ingest(a, "d1.txt", "txt",
		"first document about token lifetimes and rotation policy for agents", []string{"read"})
	if err != nil {
		t.Fatal(err)
	}
	d2, err := co.Ingest(b, "d2.txt", "txt",
		"second document describing scope grants and permission checks", []string{"write"})
	if err != nil {
		t.Fatal(err)
	}

	// C owns neither but holds both scopes, so both documents are visible.
	c := domain.Principal{ID: "agent-c", Scopes: []string{"read", "write"}}
	out, err := co.Query(c, "token rotation", 2)
	if err != nil {
		t.Fatal(err)
	}
	if out.Total == 0 || out.Total > 2 {
		t.Fatalf("expected up to 2 results, got %d", out.Total)
	}
	for i, r := range out.Results {
		if r.DocumentID != d1.Document.ID && r.DocumentID != d2.Document.ID {
			t.Errorf("result from unexpected document: %s", r.DocumentID)
		}
		if i > 0 && out.Results[i].Score > out.Results[i-1].Score {
			t.Error("results not ranked by descending similarity")
		}
	}
}

func TestDeleteDocument(t *testing.T) {
	co, _ := newTestCoordinator(t)

	owner := domain.Principal{ID: "agent-a", Scopes: []string{"read", "write"}}
	keep, err := co.Ingest(owner, "keep.txt", "txt",
		"this document stays behind after the other one is removed", []string{"read"})
	if err != nil {
		t.Fatal(err)
	}
	drop, err := co.Ingest(owner, "drop.txt", "txt",
		"this document is about to be deleted entirely", []string{"read"})
	if err != nil {
		t.Fatal(err)
	}

	// Non-owner cannot delete.
	stranger := domain.Principal{ID: "agent-x", Scopes: []string{"read", "write"}}
	if _, err := co.Delete(stranger, drop.Document.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	if _, err := co.Delete(owner, drop.Document.ID); err != nil {
		t.Fatal(err)
	}

	// Unknown id yields not-found.
	if _, err := co.Delete(owner, drop.Document.ID); !errors.Is(err, store.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}

	// Nothing referencing the deleted document survives in search or stats.
	out, err := co.Query(owner, "document deleted removed", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range out.Results {
		if r.DocumentID == drop.Document.ID {
			t.Errorf("deleted document surfaced in search: %+v", r)
		}
	}

	stats, err := co.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.UniqueDocuments != 1 {
		t.Errorf("expected 1 unique document after delete, got %d", stats.UniqueDocuments)
	}
	if stats.TotalVectors != keep.VectorCount {
		t.Errorf("expected %d vectors after delete, got %d", keep.VectorCount, stats.TotalVectors)
	}

	// The surviving document is still retrievable with unchanged content.
	out, err = co.Query(owner, "stays behind", 5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Total == 0 || out.Results[0].DocumentID != keep.Document.ID {
		t.Errorf("surviving document not retrievable: %+v", out)
	}
}

func TestListVisibility(t *testing.T) {
	co, _ := newTestCoordinator(t)

	a := domain.Principal{ID: "agent-a", Scopes: []string{"write"}}
	b := domain.Principal{ID: "agent-b", Scopes: []string{"write"}}

	if _, err := co.Ingest(a, "mine.txt", "txt", "owned by a", []string{"audit"}); err != nil {
		t.Fatal(err)
	}
	if _, err := co.Ingest(b, "shared.txt", "txt", "owned by b shared for write", []string{"write"}); err != nil {
		t.Fatal(err)
	}

	docs, err := co.List(a)
	if err != nil {
		t.Fatal(err)
	}
	// A owns mine.txt and holds "write" which shared.txt allows.
	if len(docs) != 2 {
		t.Errorf("expected 2 visible docs for a, got %d", len(docs))
	}

	viewer := domain.Principal{ID: "agent-v", Scopes: []string{"read"}}
	docs, err = co.List(viewer)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no visible docs for viewer, got %d", len(docs))
	}
}
