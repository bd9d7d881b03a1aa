package retrieval

import (
	"context"
	"fmt"
)

// ElasticBackend searches the chunk index with keyword matching.
type ElasticBackend struct {
	store KeywordStore
	index string
}

func NewElasticBackend(store KeywordStore, index string) (*ElasticBackend, error) {
	if store == nil {
		return nil, fmt.Errorf("keyword store is required")
	}
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	return &ElasticBackend{
		store: store,
		index: index,
	}, nil
}

func (b *ElasticBackend) Search(ctx context.Context, query string, k int) ([]Result, error) {
	hits, err := b.store.SearchChunks(ctx, b.index, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query elasticsearch: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			ChunkID: hit.ChunkID,
			Content: hit.Content,
			Source:  hit.Source,
			Score:   hit.Score,
		})
	}
	return results, nil
}
