// Package ingest turns uploaded documents into retrievable chunks. A document
// is stored in object storage, split into token-bounded chunks, and written to
// the retrieval backend along with a postgres record per chunk.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"ragbot/src/log"
	"ragbot/src/storage/minioctrl"
	"ragbot/src/storage/postgres/chunkctrl"
	"ragbot/src/storage/postgres/documentctrl"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ProgressFunc is called after each chunk is recorded.
type ProgressFunc func(completed, total int)

// Summary reports what a single ingestion produced.
type Summary struct {
	Document   *documentctrl.Document
	ChunkCount int
}

type Service struct {
	extractor    Extractor
	indexer      ChunkIndexer
	documents    *documentctrl.DocumentService
	chunks       *chunkctrl.ChunkService
	objects      *minioctrl.MinioService
	bucket       string
	chunkSize    int
	chunkOverlap int
	progress     ProgressFunc
}

type Option func(*Service)

func WithChunking(size, overlap int) Option {
	return func(s *Service) {
		if size > 0 {
			s.chunkSize = size
		}
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

func NewService(
	extractor Extractor,
	indexer ChunkIndexer,
	documents *documentctrl.DocumentService,
	chunks *chunkctrl.ChunkService,
	objects *minioctrl.MinioService,
	bucket string,
	opts ...Option,
) (*Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if indexer == nil {
		return nil, fmt.Errorf("chunk indexer is required")
	}
	if documents == nil {
		return nil, fmt.Errorf("document service is required")
	}
	if chunks == nil {
		return nil, fmt.Errorf("chunk service is required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object storage service is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	s := &Service{
		extractor:    extractor,
		indexer:      indexer,
		documents:    documents,
		chunks:       chunks,
		objects:      objects,
		bucket:       bucket,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IngestFile stores the raw file, records the document and indexes its chunks.
func (s *Service) IngestFile(ctx context.Context, filename string, content []byte) (*Summary, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("file %s is empty", filename)
	}

	if err := s.objects.EnsureBucketExists(ctx, s.bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	objectName := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(filename))
	if err := s.objects.PutObject(ctx, s.bucket, objectName, content); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc, err := s.documents.Create(ctx, filename, fmt.Sprintf("%s/%s", s.bucket, objectName))
	if err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	return s.process(ctx, doc, content)
}

// IngestDocument re-reads a stored document and indexes its chunks. It is used
// by the background worker, which only receives the document ID.
func (s *Service) IngestDocument(ctx context.Context, documentID int64) (*Summary, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found: %d", documentID)
	}

	bucket, objectName := s.objects.GetBucketAndObjectFromURL(doc.MinioURL)
	if bucket == "" || objectName == "" {
		return nil, fmt.Errorf("document %d has malformed storage url %q", documentID, doc.MinioURL)
	}

	content, err := s.objects.GetObject(ctx, bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to get document content: %w", err)
	}

	return s.process(ctx, doc, content)
}

func (s *Service) process(ctx context.Context, doc *documentctrl.Document, content []byte) (*Summary, error) {
	text, err := s.extractText(ctx, doc.Filename, content)
	if err != nil {
		return nil, err
	}

	pieces, err := SplitText(text, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", doc.Filename)
	}

	if err := s.indexer.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare index: %w", err)
	}

	// Re-ingesting a document replaces whatever an earlier attempt wrote.
	existing, err := s.chunks.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing chunks: %w", err)
	}
	if len(existing) > 0 {
		if err := s.chunks.DeleteByDocumentID(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing chunks: %w", err)
		}
	}

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunkID := uuid.New().String()
		if _, err := s.chunks.Create(ctx, doc.ID, chunkID, i); err != nil {
			return nil, fmt.Errorf("failed to record chunk %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{
			ChunkID:    chunkID,
			DocumentID: doc.ID,
			Order:      i,
			Content:    piece,
			Source:     doc.Filename,
		})
		if s.progress != nil {
			s.progress(i+1, len(pieces))
		}
	}

	if err := s.indexer.IndexChunks(ctx, chunks); err != nil {
		return nil, err
	}

	log.Info("document ingested", "documentID", doc.ID, "filename", doc.Filename, "chunks", len(chunks))

	return &Summary{
		Document:   doc,
		ChunkCount: len(chunks),
	}, nil
}

func (s *Service) extractText(ctx context.Context, filename string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := s.extractor.Extract(ctx, filename, content)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
		return text, nil
	case ".txt", ".md":
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

// SplitText cuts text into overlapping chunks bounded by an estimated token
// count rather than bytes.
func SplitText(text string, chunkSize, chunkOverlap int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithLenFunc(EstimateTokenCount),
	)
	return splitter.SplitText(text)
}
