package index

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"scoperag/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")

	idx, err := Open(3, base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Add([][]float32{vec(1, 0, 0), vec(0, 1, 0)}, "d1", "a.txt", []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Add([][]float32{vec(0, 0, 1)}, "d2", "b.txt", []string{"gamma"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(3, base)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(idx.Stats(), reopened.Stats()) {
		t.Errorf("stats differ after reload: %+v vs %+v", idx.Stats(), reopened.Stats())
	}

	query := vec(0.9, 0.1, 0)
	want, err := idx.Search(query, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Search(query, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("search results differ after reload:\n%+v\n%+v", want, got)
	}
}

func TestSnapshotSurvivesDelete(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")

	idx, err := Open(2, base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Add([][]float32{vec(1, 0)}, "keep", "k.txt", []string{"kept"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Add([][]float32{vec(0, 1)}, "drop", "d.txt", []string{"dropped"}); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.DeleteDocument("drop"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(2, base)
	if err != nil {
		t.Fatal(err)
	}

	stats := reopened.Stats()
	if stats.TotalVectors != 1 || stats.UniqueDocuments != 1 {
		t.Errorf("unexpected stats after reload: %+v", stats)
	}

	results, err := reopened.Search(vec(1, 0), 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkText != "kept" {
		t.Errorf("surviving record not retrievable after reload: %+v", results)
	}
}

func TestSnapshotLoadMissingPair(t *testing.T) {
	snap := NewSnapshot(filepath.Join(t.TempDir(), "absent"))

	records, dim, err := snap.Load()
	if err != nil {
		t.Fatalf("missing pair should not error, got %v", err)
	}
	if len(records) != 0 || dim != 0 {
		t.Errorf("expected empty load, got %d records dim %d", len(records), dim)
	}
}

func TestSnapshotLoadHalfPair(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")
	snap := NewSnapshot(base)

	records := []domain.VectorRecord{
		{VectorID: 0, DocumentID: "d1", Filename: "a.txt", ChunkIndex: 0, ChunkText: "a", Vector: vec(1, 0)},
	}
	if err := snap.Save(records, 2); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(base + ".meta.json"); err != nil {
		t.Fatal(err)
	}

	_, _, err := snap.Load()
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot for half pair, got %v", err)
	}
}

func TestSnapshotLoadGarbage(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")
	if err := os.WriteFile(base+".vec", []byte("not a snapshot"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".meta.json", []byte("{]"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := NewSnapshot(base).Load()
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot for garbage, got %v", err)
	}
}

func TestOpenCorruptSnapshotFallsBackEmpty(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")
	if err := os.WriteFile(base+".vec", []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".meta.json", []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := Open(2, base)
	if err != nil {
		t.Fatalf("corrupt snapshot must not fail startup, got %v", err)
	}
	if got := idx.Stats().TotalVectors; got != 0 {
		t.Errorf("expected empty index after corrupt fallback, got %d", got)
	}

	// The fallback index keeps serving: new data can still be ingested
	// and persisted over the corrupt pair.
	if _, err := idx.Add([][]float32{vec(1, 1)}, "d1", "a.txt", []string{"fresh"}); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(2, base)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Stats().TotalVectors; got != 1 {
		t.Errorf("expected 1 vector after re-ingest, got %d", got)
	}
}

func TestOpenDimensionChangeFallsBackEmpty(t *testing.T) {
	base := filepath.Join(t.TempDir(), "index")

	idx, err := Open(2, base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Add([][]float32{vec(1, 0)}, "d1", "a.txt", []string{"a"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(3, base)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Stats().TotalVectors; got != 0 {
		t.Errorf("expected empty index on dimension change, got %d", got)
	}
}
