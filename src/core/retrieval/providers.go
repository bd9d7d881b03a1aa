package retrieval

import (
	"context"

	"ragbot/src/storage/elastic"
	"ragbot/src/storage/weaviate"
)

// Embedder produces a vector embedding for query text.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the search surface of the weaviate SDK wrapper.
type VectorStore interface {
	QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
	QueryHybrid(ctx context.Context, className string, vector []float32, config weaviate.HybridConfig) ([]weaviate.QueryResult, error)
}

// KeywordStore is the search surface of the elasticsearch SDK wrapper.
type KeywordStore interface {
	SearchChunks(ctx context.Context, index, query string, k int) ([]elastic.ChunkHit, error)
}
