// Package elastic wraps the official Elasticsearch client with the chunk
// index operations the retrieval and ingestion pipelines need.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

const DefaultSearchSize = 10

// SDK encapsulates all Elasticsearch operations
type SDK struct {
	client *elasticsearch.Client
}

// NewSDK creates a new instance of SDK
func NewSDK(client *elasticsearch.Client) *SDK {
	return &SDK{
		client: client,
	}
}

// ChunkDocument is one indexed chunk.
type ChunkDocument struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID int64  `json:"document_id,string"`
	Order      int    `json:"chunk_order"`
	Content    string `json:"content"`
	Source     string `json:"source"`
}

// ChunkHit is one keyword search hit.
type ChunkHit struct {
	ChunkID string
	Content string
	Source  string
	Score   float64
}

// EnsureIndex creates the index when it does not exist yet.
func (s *SDK) EnsureIndex(ctx context.Context, index string) error {
	res, err := s.client.Indices.Exists(
		[]string{index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to check if index exists: %s", res.Status())
	}

	created, err := s.client.Indices.Create(
		index,
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}
	defer created.Body.Close()

	if created.IsError() {
		return fmt.Errorf("failed to create index: %s", created.String())
	}

	return nil
}

// DeleteIndex drops the index. Missing indices are not an error.
func (s *SDK) DeleteIndex(ctx context.Context, index string) error {
	res, err := s.client.Indices.Delete(
		[]string{index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to delete index: %s", res.String())
	}

	return nil
}

// BulkIndexChunks indexes all chunks in a single bulk request.
func (s *SDK) BulkIndexChunks(ctx context.Context, index string, docs []ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": doc.ChunkID},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action: %v", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode chunk document: %v", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk index chunks: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to bulk index chunks: %s", res.String())
	}

	// Bulk responses report item-level failures with a 200 status.
	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("failed to parse bulk response: %v", err)
	}
	if bulkResp.Errors {
		return fmt.Errorf("bulk indexing reported item failures")
	}

	return nil
}

// SearchChunks runs a match query against chunk content.
func (s *SDK) SearchChunks(ctx context.Context, index, query string, k int) ([]ChunkHit, error) {
	if k <= 0 {
		k = DefaultSearchSize
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"content": query,
			},
		},
		"size": k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode search body: %v", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to search chunks: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64       `json:"_score"`
				Source ChunkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %v", err)
	}

	hits := make([]ChunkHit, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		hits = append(hits, ChunkHit{
			ChunkID: hit.Source.ChunkID,
			Content: hit.Source.Content,
			Source:  hit.Source.Source,
			Score:   hit.Score,
		})
	}

	return hits, nil
}

// Ping checks cluster reachability.
func (s *SDK) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping elasticsearch: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to ping elasticsearch: %s", res.Status())
	}

	return nil
}
