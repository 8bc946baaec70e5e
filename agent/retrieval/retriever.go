package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const noResultsMessage = "No relevant information found."

// Searcher finds the nearest stored documents for a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]Match, error)
}

type Document struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Result struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
	Context   string     `json:"context"`
}

type Retriever struct {
	embedder      Embedder
	searcher      Searcher
	contentField  string
	metadataField string
	topK          int
	minScore      float64
	log           zerolog.Logger
}

func NewRetriever(embedder Embedder, searcher Searcher, cfg Config) (*Retriever, error) {
	if embedder == nil || searcher == nil {
		return nil, errors.New("retriever needs an embedder and a searcher")
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	contentField := cfg.ContentField
	if contentField == "" {
		contentField = "page_content"
	}
	return &Retriever{
		embedder:      embedder,
		searcher:      searcher,
		contentField:  contentField,
		metadataField: cfg.MetadataField,
		topK:          topK,
		minScore:      cfg.MinScore,
		log:           log.Logger.With().Str("component", "retrieval").Logger(),
	}, nil
}

// Retrieve returns up to k documents for query. k <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, errors.New("query is required")
	}
	if k <= 0 {
		k = r.topK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.searcher.Search(ctx, vec, k)
	if err != nil {
		return Result{}, err
	}

	docs := make([]Document, 0, len(matches))
	for _, m := range matches {
		if m.Score < r.minScore {
			continue
		}
		docs = append(docs, r.toDocument(m))
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > k {
		docs = docs[:k]
	}

	r.log.Debug().Str("query", query).Int("k", k).Int("documents", len(docs)).Msg("retrieval finished")
	return Result{Query: query, Documents: docs, Context: render(docs)}, nil
}

func (r *Retriever) toDocument(m Match) Document {
	doc := Document{ID: m.ID, Score: m.Score}
	if v, ok := m.Payload[r.contentField].(string); ok {
		doc.Content = v
	}
	if r.metadataField != "" {
		if md, ok := m.Payload[r.metadataField].(map[string]any); ok {
			doc.Metadata = md
			return doc
		}
	}
	md := make(map[string]any, len(m.Payload))
	for k, v := range m.Payload {
		if k == r.contentField {
			continue
		}
		md[k] = v
	}
	if len(md) > 0 {
		doc.Metadata = md
	}
	return doc
}

func render(docs []Document) string {
	if len(docs) == 0 {
		return noResultsMessage
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		source := "{}"
		if len(d.Metadata) > 0 {
			if raw, err := json.Marshal(d.Metadata); err == nil {
				source = string(raw)
			}
		}
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", source, d.Content))
	}
	return strings.Join(parts, "\n\n")
}
