package ollama

import "context"

// Provider adapts a Client to the oracle LLM provider interface, pinning the
// completion model.
type Provider struct {
	client *Client
	model  string
}

func NewProvider(client *Client, model string) *Provider {
	return &Provider{
		client: client,
		model:  model,
	}
}

// Reasoning generates a completion. Temperature is pinned to zero so the
// decide and grade judgments stay repeatable.
func (p *Provider) Reasoning(ctx context.Context, system string, prompt string) (string, error) {
	return p.client.Generate(ctx, p.model, system, prompt, map[string]interface{}{
		"temperature": 0,
	})
}

// Embedder adapts a Client to the embedding interfaces, pinning the
// embedding model.
type Embedder struct {
	client *Client
	model  string
}

func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{
		client: client,
		model:  model,
	}
}

func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return e.client.GetEmbedding(ctx, e.model, text)
}
