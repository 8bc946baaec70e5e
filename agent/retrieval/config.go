package retrieval

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const defaultTopK = 3

type Config struct {
	QdrantURL      string        `envconfig:"QDRANT_URL" required:"true"`
	QdrantAPIKey   string        `envconfig:"QDRANT_API_KEY"`
	Collection     string        `default:"customer_service_docs"`
	ContentField   string        `split_words:"true" default:"page_content"`
	MetadataField  string        `split_words:"true" default:"metadata"`
	EmbeddingURL   string        `envconfig:"EMBEDDING_URL" default:"https://api.openai.com/v1"`
	EmbeddingKey   string        `envconfig:"EMBEDDING_API_KEY" required:"true"`
	EmbeddingModel string        `split_words:"true" default:"text-embedding-3-small"`
	TopK           int           `envconfig:"TOP_K" default:"3"`
	MinScore       float64       `split_words:"true" default:"0"`
	Timeout        time.Duration `default:"10s"`
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(strings.TrimSpace(c.QdrantURL)); err != nil {
		return errors.New("retrieval qdrant url is invalid")
	}
	if strings.TrimSpace(c.Collection) == "" {
		return errors.New("retrieval collection is required")
	}
	if c.TopK < 1 {
		return errors.New("retrieval top k must be >= 1")
	}
	return nil
}
