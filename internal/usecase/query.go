package usecase

import (
	"fmt"

	"scoperag/internal/access"
	"scoperag/internal/domain"
)

// QueryResult is the response to a semantic query.
type QueryResult struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Total   int                   `json:"total_results"`
}

// Query embeds the query text and searches the index, post-filtered to the
// documents the principal can see. Requires the read scope. When nothing is
// visible the index is never touched and the result is empty.
func (co *Coordinator) Query(p domain.Principal, text string, topK int) (*QueryResult, error) {
	if !p.HasScope(ScopeRead) {
		return nil, fmt.Errorf("%w: %s", ErrMissingScope, ScopeRead)
	}

	out := &QueryResult{Query: text}

	docs, err := co.docs.ListDocs()
	if err != nil {
		return nil, err
	}
	allowed := access.AllowedSet(p, docs)
	if len(allowed) == 0 {
		return out, nil
	}

	embeddings, err := co.embedder.Embed([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := co.idx.Search(embeddings[0], topK, allowed)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	out.Results = results
	out.Total = len(results)
	return out, nil
}
