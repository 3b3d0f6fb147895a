package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scoperag/internal/domain"
)

// ErrCorruptSnapshot marks a snapshot pair that cannot be trusted: a missing
// half, a bad header, or artifacts that disagree with each other. Callers
// recover by starting from an empty index.
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

// snapshotMagic identifies the vector artifact format.
const snapshotMagic uint32 = 0x53524147 // "SRAG"

// Snapshot persists the full index state as two co-located artifacts:
// <base>.vec holds the dimensionality and raw vectors in insertion order,
// <base>.meta.json holds the parallel chunk metadata. Both are rewritten
// together; a reader finding only one of them treats the pair as corrupt.
type Snapshot struct {
	base string
	log  *slog.Logger
}

// NewSnapshot creates a snapshot writer/reader rooted at base.
func NewSnapshot(base string) *Snapshot {
	return &Snapshot{base: base}
}

func (s *Snapshot) vecPath() string  { return s.base + ".vec" }
func (s *Snapshot) metaPath() string { return s.base + ".meta.json" }

func (s *Snapshot) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return slog.Default()
}

// metaRecord mirrors domain.VectorRecord minus the vector itself, which
// lives in the binary artifact at the same position.
type metaRecord struct {
	VectorID   int    `json:"vector_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkText  string `json:"chunk_text"`
}

type metaFile struct {
	Dimension int          `json:"dimension"`
	Records   []metaRecord `json:"records"`
}

// Save durably writes both artifacts. Each is written to a same-directory
// temp file, fsynced and renamed over the destination, and the parent
// directory is fsynced afterwards, so a crash never leaves a half-written
// artifact in place.
func (s *Snapshot) Save(records []domain.VectorRecord, dimension int) error {
	var vec bytes.Buffer
	header := []uint32{snapshotMagic, uint32(dimension), uint32(len(records))}
	for _, h := range header {
		if err := binary.Write(&vec, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := binary.Write(&vec, binary.LittleEndian, rec.Vector); err != nil {
			return err
		}
	}

	meta := metaFile{Dimension: dimension, Records: make([]metaRecord, len(records))}
	for i, rec := range records {
		meta.Records[i] = metaRecord{
			VectorID:   rec.VectorID,
			DocumentID: rec.DocumentID,
			Filename:   rec.Filename,
			ChunkIndex: rec.ChunkIndex,
			ChunkText:  rec.ChunkText,
		}
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	if err := writeAtomic(s.vecPath(), vec.Bytes()); err != nil {
		return fmt.Errorf("write vector artifact: %w", err)
	}
	if err := writeAtomic(s.metaPath(), metaData); err != nil {
		return fmt.Errorf("write metadata artifact: %w", err)
	}
	return nil
}

// Load reconstructs the records saved by Save. A fully missing pair is not
// an error and yields an empty index; anything else that cannot be read back
// consistently returns ErrCorruptSnapshot.
func (s *Snapshot) Load() ([]domain.VectorRecord, int, error) {
	vecData, vecErr := os.ReadFile(s.vecPath())
	metaData, metaErr := os.ReadFile(s.metaPath())

	if os.IsNotExist(vecErr) && os.IsNotExist(metaErr) {
		return nil, 0, nil
	}
	if vecErr != nil || metaErr != nil {
		return nil, 0, fmt.Errorf("%w: incomplete pair (vec: %v, meta: %v)", ErrCorruptSnapshot, vecErr, metaErr)
	}

	dim, vectors, err := decodeVectors(vecData)
	if err != nil {
		return nil, 0, err
	}

	var meta metaFile
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, 0, fmt.Errorf("%w: metadata: %v", ErrCorruptSnapshot, err)
	}
	if meta.Dimension != dim || len(meta.Records) != len(vectors) {
		return nil, 0, fmt.Errorf("%w: artifacts disagree (dim %d/%d, count %d/%d)",
			ErrCorruptSnapshot, dim, meta.Dimension, len(vectors), len(meta.Records))
	}

	records := make([]domain.VectorRecord, len(vectors))
	for i, m := range meta.Records {
		records[i] = domain.VectorRecord{
			VectorID:   m.VectorID,
			DocumentID: m.DocumentID,
			Filename:   m.Filename,
			ChunkIndex: m.ChunkIndex,
			ChunkText:  m.ChunkText,
			Vector:     vectors[i],
		}
	}
	return records, dim, nil
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	r := bytes.NewReader(data)

	var magic, dim, count uint32
	for _, dst := range []*uint32{&magic, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return 0, nil, fmt.Errorf("%w: short header", ErrCorruptSnapshot)
		}
	}
	if magic != snapshotMagic {
		return 0, nil, fmt.Errorf("%w: bad magic %#x", ErrCorruptSnapshot, magic)
	}
	if int64(r.Len()) != int64(dim)*int64(count)*4 {
		return 0, nil, fmt.Errorf("%w: vector data length %d does not match %dx%d",
			ErrCorruptSnapshot, r.Len(), count, dim)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vectors[i] = make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vectors[i]); err != nil {
			return 0, nil, fmt.Errorf("%w: truncated vector data", ErrCorruptSnapshot)
		}
	}
	return int(dim), vectors, nil
}

// writeAtomic replaces dest with data via a same-dir temp file, fsync and
// rename, then fsyncs the parent directory.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return syncDir(dir)
}

// syncDir best-effort fsyncs a directory to persist the rename.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
