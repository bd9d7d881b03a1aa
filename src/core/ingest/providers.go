package ingest

import "context"

// Extractor converts a source file into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) (string, error)
}

// Embedder produces a vector embedding for chunk text.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkIndexer writes prepared chunks into a retrieval backend.
type ChunkIndexer interface {
	// EnsureReady makes sure the backing collection exists.
	EnsureReady(ctx context.Context) error
	IndexChunks(ctx context.Context, chunks []Chunk) error
}

// Chunk is one split piece of a document headed for the index.
type Chunk struct {
	ChunkID    string
	DocumentID int64
	Order      int
	Content    string
	Source     string
}
