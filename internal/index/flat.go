package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"scoperag/internal/domain"
)

// ErrDimensionMismatch is returned when a vector's width disagrees with the
// index dimension. The failing Add leaves existing records untouched.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Flat is an exact, brute-force vector index. Records are held in insertion
// order and vector IDs are their positional offsets, dense from zero. The raw
// vector stays inside each record so a delete can rebuild the index without
// re-embedding; an approximate structure could replace the search internals
// without changing this contract.
//
// All mutations (Add, DeleteDocument and the snapshot save that follows them)
// run under one writer lock. Searches share a read lock, so they see either
// the state before a rebuild or after it, never a partial one.
type Flat struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.VectorRecord
	snap      *Snapshot // nil disables persistence
}

// NewFlat creates an in-memory index with no persistence.
func NewFlat(dimension int) *Flat {
	return &Flat{dimension: dimension}
}

// Open creates an index persisted at the snapshot base path and loads any
// existing snapshot pair. A missing pair starts empty; a corrupt pair is
// logged and discarded rather than failing startup, so the process keeps
// serving and can re-ingest.
func Open(dimension int, snapshotBase string) (*Flat, error) {
	f := &Flat{
		dimension: dimension,
		snap:      NewSnapshot(snapshotBase),
	}

	records, dim, err := f.snap.Load()
	if err != nil {
		if errors.Is(err, ErrCorruptSnapshot) {
			f.snap.logger().Warn("discarding corrupt index snapshot, starting empty",
				"base", snapshotBase, "error", err)
			return f, nil
		}
		return nil, err
	}
	if len(records) > 0 {
		if dim != dimension {
			f.snap.logger().Warn("snapshot dimension disagrees with configuration, starting empty",
				"snapshot_dim", dim, "configured_dim", dimension)
			return f, nil
		}
		f.records = records
	}
	return f, nil
}

// Dimension returns the declared embedding dimensionality.
func (f *Flat) Dimension() int { return f.dimension }

// Add appends one record per vector, assigning dense ascending vector IDs
// starting at the current record count, and returns the assigned IDs.
// Every vector must have exactly the index dimension and vectors must be
// parallel to chunkTexts.
func (f *Flat) Add(vectors [][]float32, documentID, filename string, chunkTexts []string) ([]int, error) {
	if len(vectors) != len(chunkTexts) {
		return nil, fmt.Errorf("vectors and chunk texts length mismatch: %d vs %d", len(vectors), len(chunkTexts))
	}
	for _, v := range vectors {
		if len(v) != f.dimension {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dimension, len(v))
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	start := len(f.records)
	ids := make([]int, len(vectors))
	for i := range vectors {
		id := start + i
		ids[i] = id
		f.records = append(f.records, domain.VectorRecord{
			VectorID:   id,
			DocumentID: documentID,
			Filename:   filename,
			ChunkIndex: i,
			ChunkText:  chunkTexts[i],
			Vector:     vectors[i],
		})
	}

	if err := f.persistLocked(); err != nil {
		// Unacknowledged mutation: roll the append back so memory and
		// disk stay in step.
		f.records = f.records[:start]
		return nil, err
	}
	return ids, nil
}

// Search returns up to topK records nearest to query by exact squared
// Euclidean distance, scored as 1/(1+distance) so scores lie in (0,1] and
// decrease monotonically with distance. When allowed is non-nil, records
// from other documents are filtered out after ranking; the index examines
// min(topK*3, total) nearest candidates first so filtering does not starve
// results. An empty index yields an empty result.
func (f *Flat) Search(query []float32, topK int, allowed map[string]struct{}) ([]domain.SearchResult, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dimension, len(query))
	}
	if topK <= 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.records) == 0 {
		return nil, nil
	}

	type candidate struct {
		idx  int
		dist float64
	}
	candidates := make([]candidate, len(f.records))
	for i := range f.records {
		candidates[i] = candidate{idx: i, dist: squaredL2(query, f.records[i].Vector)}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	// Over-fetch before access filtering.
	pool := topK * 3
	if pool > len(candidates) {
		pool = len(candidates)
	}

	results := make([]domain.SearchResult, 0, topK)
	for _, c := range candidates[:pool] {
		rec := f.records[c.idx]
		if allowed != nil {
			if _, ok := allowed[rec.DocumentID]; !ok {
				continue
			}
		}
		results = append(results, domain.SearchResult{
			DocumentID: rec.DocumentID,
			Filename:   rec.Filename,
			ChunkIndex: rec.ChunkIndex,
			ChunkText:  rec.ChunkText,
			Score:      1.0 / (1.0 + c.dist),
		})
		if len(results) >= topK {
			break
		}
	}

	return results, nil
}

// DeleteDocument removes every record belonging to documentID and rebuilds
// the index from the survivors, reassigning vector IDs densely from zero.
// The replacement slice is built off to the side and swapped in, so
// concurrent searches never observe a half-rebuilt index. Returns the number
// of records removed.
func (f *Flat) DeleteDocument(documentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rebuilt := make([]domain.VectorRecord, 0, len(f.records))
	for _, rec := range f.records {
		if rec.DocumentID == documentID {
			continue
		}
		rec.VectorID = len(rebuilt)
		rebuilt = append(rebuilt, rec)
	}

	removed := len(f.records) - len(rebuilt)
	if removed == 0 {
		return 0, nil
	}

	prev := f.records
	f.records = rebuilt
	if err := f.persistLocked(); err != nil {
		f.records = prev
		return 0, err
	}
	return removed, nil
}

// Stats returns index totals.
func (f *Flat) Stats() domain.IndexStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	docs := make(map[string]struct{})
	for _, rec := range f.records {
		docs[rec.DocumentID] = struct{}{}
	}

	return domain.IndexStats{
		TotalVectors:    len(f.records),
		Dimension:       f.dimension,
		UniqueDocuments: len(docs),
	}
}

// persistLocked writes the snapshot pair while holding the write lock, so
// saves serialize with mutations and the on-disk state always reflects the
// most recent acknowledged one.
func (f *Flat) persistLocked() error {
	if f.snap == nil {
		return nil
	}
	if err := f.snap.Save(f.records, f.dimension); err != nil {
		return fmt.Errorf("snapshot save: %w", err)
	}
	return nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
