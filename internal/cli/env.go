package cli

import (
	"fmt"

	"scoperag/config"
	"scoperag/internal/adapter/chunker"
	"scoperag/internal/adapter/embedding"
	"scoperag/internal/adapter/store"
	"scoperag/internal/domain"
	"scoperag/internal/index"
	"scoperag/internal/port"
	"scoperag/internal/usecase"
)

// env bundles everything a command needs: the record store, the index and
// the coordinator on top of them.
type env struct {
	store *store.BoltStore
	coord *usecase.Coordinator
}

func (e *env) Close() error {
	return e.store.Close()
}

// openEnv builds the full pipeline from configuration.
func openEnv(cfg *config.Config) (*env, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	ch, err := chunker.NewWindowChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	idx, err := index.Open(embedder.Dimension(), cfg.SnapshotBase())
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	st, err := store.NewBoltStore(cfg.StoreDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	coord, err := usecase.NewCoordinator(ch, embedder, idx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{store: st, coord: coord}, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		if e.BaseURL != "" {
			return embedding.NewCompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.Dimension)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension)
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

// resolvePrincipal turns the --agent flag into a principal via the registry.
// There is no credential check here: the CLI operator is trusted to act as
// the named agent.
func resolvePrincipal(e *env) (domain.Principal, error) {
	if agentName == "" {
		return domain.Principal{}, fmt.Errorf("--agent is required (register one with 'scoperag agent register')")
	}

	agent, err := e.store.GetAgentByName(agentName)
	if err != nil {
		return domain.Principal{}, err
	}
	if !agent.Active {
		return domain.Principal{}, fmt.Errorf("agent %q is deactivated", agentName)
	}

	return domain.Principal{ID: agent.ID, Scopes: agent.Scopes}, nil
}
