package port

import "scoperag/internal/domain"

// DocumentStore keeps document records: ownership, allowed scopes and the
// vector IDs handed back by the index on ingest.
type DocumentStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	DeleteDoc(id string) error

	ListDocs() ([]domain.Document, error)
}

// AgentStore keeps registered agents. Lookup by name is what the CLI uses
// to resolve a principal.
type AgentStore interface {
	PutAgent(agent domain.Agent) error

	GetAgentByName(name string) (domain.Agent, error)

	ListAgents() ([]domain.Agent, error)
}
