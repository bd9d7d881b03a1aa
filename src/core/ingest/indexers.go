package ingest

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"ragbot/src/storage/elastic"
	"ragbot/src/storage/weaviate"
)

// WeaviateIndexer embeds chunks and batch-writes them into a weaviate class.
type WeaviateIndexer struct {
	sdk      *weaviate.SDK
	embedder Embedder
	class    string
}

func NewWeaviateIndexer(sdk *weaviate.SDK, embedder Embedder, class string) (*WeaviateIndexer, error) {
	if sdk == nil {
		return nil, fmt.Errorf("weaviate sdk is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if class == "" {
		return nil, fmt.Errorf("class name is required")
	}

	return &WeaviateIndexer{
		sdk:      sdk,
		embedder: embedder,
		class:    class,
	}, nil
}

// EnsureReady creates the chunk class when it is missing. Vectors come from
// the pipeline, so the class is created without a vectorizer.
func (w *WeaviateIndexer) EnsureReady(ctx context.Context) error {
	properties := []*models.Property{
		{
			Name:        "content",
			DataType:    []string{"text"},
			Description: "The text content of the chunk",
		},
		{
			Name:        "source",
			DataType:    []string{"text"},
			Description: "Filename of the source document",
		},
		{
			Name:        "chunkId",
			DataType:    []string{"text"},
			Description: "Stable chunk identifier",
		},
		{
			Name:        "chunkOrder",
			DataType:    []string{"int"},
			Description: "Position of the chunk within the document",
		},
	}

	return w.sdk.EnsureSchema(ctx, w.class, properties, "none")
}

func (w *WeaviateIndexer) IndexChunks(ctx context.Context, chunks []Chunk) error {
	objects := make([]weaviate.VectorObject, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := w.embedder.GetEmbedding(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %s: %w", chunk.ChunkID, err)
		}
		objects = append(objects, weaviate.VectorObject{
			Vector: vector,
			Properties: map[string]interface{}{
				"content":    chunk.Content,
				"source":     chunk.Source,
				"chunkId":    chunk.ChunkID,
				"chunkOrder": chunk.Order,
			},
		})
	}

	if err := w.sdk.BatchAddVectors(ctx, w.class, objects); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}

// ElasticIndexer bulk-writes chunks into an elasticsearch index.
type ElasticIndexer struct {
	sdk   *elastic.SDK
	index string
}

func NewElasticIndexer(sdk *elastic.SDK, index string) (*ElasticIndexer, error) {
	if sdk == nil {
		return nil, fmt.Errorf("elasticsearch sdk is required")
	}
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	return &ElasticIndexer{
		sdk:   sdk,
		index: index,
	}, nil
}

func (e *ElasticIndexer) EnsureReady(ctx context.Context) error {
	return e.sdk.EnsureIndex(ctx, e.index)
}

func (e *ElasticIndexer) IndexChunks(ctx context.Context, chunks []Chunk) error {
	docs := make([]elastic.ChunkDocument, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, elastic.ChunkDocument{
			ChunkID:    chunk.ChunkID,
			DocumentID: chunk.DocumentID,
			Order:      chunk.Order,
			Content:    chunk.Content,
			Source:     chunk.Source,
		})
	}

	if err := e.sdk.BulkIndexChunks(ctx, e.index, docs); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}
