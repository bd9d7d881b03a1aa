package retrieval

import (
	"context"
	"fmt"

	"ragbot/src/storage/weaviate"
)

var chunkFields = []string{"content", "source", "chunkId"}

// WeaviateBackend searches the chunk class by embedding the query. With
// hybrid enabled the vector score is blended with BM25.
type WeaviateBackend struct {
	store    VectorStore
	embedder Embedder
	class    string
	hybrid   bool
}

func NewWeaviateBackend(store VectorStore, embedder Embedder, class string, hybrid bool) (*WeaviateBackend, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if class == "" {
		return nil, fmt.Errorf("class name is required")
	}

	return &WeaviateBackend{
		store:    store,
		embedder: embedder,
		class:    class,
		hybrid:   hybrid,
	}, nil
}

func (b *WeaviateBackend) Search(ctx context.Context, query string, k int) ([]Result, error) {
	vector, err := b.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var hits []weaviate.QueryResult
	if b.hybrid {
		config := weaviate.DefaultHybridConfig(query)
		config.Fields = chunkFields
		config.Limit = k
		hits, err = b.store.QueryHybrid(ctx, b.class, vector, config)
	} else {
		hits, err = b.store.QueryVectors(ctx, b.class, vector, weaviate.QueryConfig{
			Fields: chunkFields,
			Limit:  k,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query weaviate: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		r := Result{Score: hit.Score}
		if content, ok := hit.Properties["content"].(string); ok {
			r.Content = content
		}
		if source, ok := hit.Properties["source"].(string); ok {
			r.Source = source
		}
		if chunkID, ok := hit.Properties["chunkId"].(string); ok {
			r.ChunkID = chunkID
		}
		results = append(results, r)
	}
	return results, nil
}
