// Package ollama wraps the official Ollama API client behind the small
// surface the oracles and the ingestion pipeline need.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"ragbot/src/log"
)

const DefaultURL = "http://localhost:11434"

// Client talks to one Ollama instance.
type Client struct {
	api *api.Client
}

// NewClient creates a client for the given base URL. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{api: api.NewClient(base, httpClient)}, nil
}

// Generate produces a completion for the system/prompt pair.
func (c *Client) Generate(ctx context.Context, model, system, prompt string, options map[string]interface{}) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   model,
		System:  system,
		Prompt:  prompt,
		Stream:  &stream,
		Options: options,
	}

	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		log.Error(err, "ollama generate failed", "model", model)
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no response received from ollama")
	}

	return out.String(), nil
}

// GetEmbedding returns the embedding vector for the given text.
func (c *Client) GetEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

// Models lists the model names available on the instance.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}

	return names, nil
}
