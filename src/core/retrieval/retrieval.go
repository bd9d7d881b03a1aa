// Package retrieval implements the engine's retrieval oracle on top of the
// configured search backend.
package retrieval

import (
	"context"
	"fmt"

	"ragbot/src/core/agent"
)

// DefaultLimit is how many chunks a retrieval pass hands to the engine.
const DefaultLimit = 4

// Result is one scored chunk returned by a backend.
type Result struct {
	ChunkID string
	Content string
	Source  string
	Score   float64
}

// Searcher is implemented by each retrieval backend.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// Service adapts a backend to the engine's retriever interface and to the
// evaluation harness.
type Service struct {
	backend Searcher
	limit   int
}

// Option configures a Service.
type Option func(*Service)

// WithLimit overrides how many chunks Retrieve fetches per query.
func WithLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// NewService creates a retrieval service over the given backend.
func NewService(backend Searcher, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("search backend is required")
	}

	s := &Service{
		backend: backend,
		limit:   DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs the backend query, most relevant first. A non-positive k falls
// back to the configured limit.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = s.limit
	}
	return s.backend.Search(ctx, query, k)
}

// Retrieve implements agent.Retriever.
func (s *Service) Retrieve(ctx context.Context, query string) ([]agent.Passage, error) {
	results, err := s.backend.Search(ctx, query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	passages := make([]agent.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, agent.Passage{
			Content: r.Content,
			Source:  r.Source,
		})
	}
	return passages, nil
}
