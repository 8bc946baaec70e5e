package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	openrouterx "github.com/tanpawarit/chative-customer-service/pkg/openrouter"
)

// Embedder turns a query into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	client := openrouterx.NewClient(openrouterx.Config{
		BaseURL: cfg.EmbeddingURL,
		APIKey:  cfg.EmbeddingKey,
		Timeout: cfg.Timeout,
	})
	if client == nil {
		return nil, errors.New("embedding api key is required")
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		return nil, errors.New("embedding model is required")
	}
	return &OpenAIEmbedder{client: client, model: cfg.EmbeddingModel}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embedding response is empty")
	}

	src := resp.Data[0].Embedding
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out, nil
}
