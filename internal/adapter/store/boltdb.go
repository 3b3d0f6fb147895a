package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"scoperag/internal/domain"
)

var (
	bucketDocuments  = []byte("documents")
	bucketAgents     = []byte("agents")
	bucketAgentNames = []byte("agent_names")
)

var (
	// ErrDocumentNotFound is returned for lookups of unknown document ids.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrAgentNotFound is returned for lookups of unknown agent names.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrAgentExists is returned when registering a name already taken.
	ErrAgentExists = errors.New("agent already registered")
)

// BoltStore keeps document and agent records in a local BoltDB file. It is
// the relational collaborator the retrieval core depends on: documents carry
// ownership, allowed scopes and the vector IDs returned by the index.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketAgents, bucketAgentNames} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type docMeta struct {
	Filename      string   `json:"filename"`
	FileType      string   `json:"file_type"`
	OwnerID       string   `json:"owner_id"`
	AllowedScopes []string `json:"allowed_scopes"`
	VectorIDs     []int    `json:"vector_ids"`
	SizeBytes     int      `json:"size_bytes"`
	CreatedAt     int64    `json:"created_at"`
}

type agentMeta struct {
	Name        string   `json:"name"`
	Scopes      []string `json:"scopes"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active"`
	CreatedAt   int64    `json:"created_at"`
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := docMeta{
			Filename:      doc.Filename,
			FileType:      doc.FileType,
			OwnerID:       doc.OwnerID,
			AllowedScopes: doc.AllowedScopes,
			VectorIDs:     doc.VectorIDs,
			SizeBytes:     doc.SizeBytes,
			CreatedAt:     doc.CreatedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocuments).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = docFromMeta(id, meta)
		return nil
	})
	return doc, err
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, docFromMeta(string(k), meta))
			return nil
		})
	})
	return docs, err
}

func docFromMeta(id string, meta docMeta) domain.Document {
	return domain.Document{
		ID:            id,
		Filename:      meta.Filename,
		FileType:      meta.FileType,
		OwnerID:       meta.OwnerID,
		AllowedScopes: meta.AllowedScopes,
		VectorIDs:     meta.VectorIDs,
		SizeBytes:     meta.SizeBytes,
		CreatedAt:     time.Unix(meta.CreatedAt, 0),
	}
}

// PutAgent stores an agent record. Names are unique; registering an existing
// name fails unless the id matches (which updates the record in place).
func (s *BoltStore) PutAgent(agent domain.Agent) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket(bucketAgentNames)
		if existing := names.Get([]byte(agent.Name)); existing != nil && string(existing) != agent.ID {
			return fmt.Errorf("%w: %s", ErrAgentExists, agent.Name)
		}

		meta := agentMeta{
			Name:        agent.Name,
			Scopes:      agent.Scopes,
			Description: agent.Description,
			Active:      agent.Active,
			CreatedAt:   agent.CreatedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketAgents).Put([]byte(agent.ID), data); err != nil {
			return err
		}
		return names.Put([]byte(agent.Name), []byte(agent.ID))
	})
}

func (s *BoltStore) GetAgentByName(name string) (domain.Agent, error) {
	var agent domain.Agent
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketAgentNames).Get([]byte(name))
		if id == nil {
			return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
		}
		data := tx.Bucket(bucketAgents).Get(id)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
		}
		var meta agentMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		agent = agentFromMeta(string(id), meta)
		return nil
	})
	return agent, err
}

func (s *BoltStore) ListAgents() ([]domain.Agent, error) {
	var agents []domain.Agent
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAgents).ForEach(func(k, v []byte) error {
			var meta agentMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			agents = append(agents, agentFromMeta(string(k), meta))
			return nil
		})
	})
	return agents, err
}

func agentFromMeta(id string, meta agentMeta) domain.Agent {
	return domain.Agent{
		ID:          id,
		Name:        meta.Name,
		Scopes:      meta.Scopes,
		Description: meta.Description,
		Active:      meta.Active,
		CreatedAt:   time.Unix(meta.CreatedAt, 0),
	}
}
