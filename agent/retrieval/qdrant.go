package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

var ErrSearch = errors.New("vector search failed")

// Match is one scored point returned by the vector index.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type qdrantPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// QdrantSearcher runs similarity searches against one Qdrant collection over REST.
type QdrantSearcher struct {
	baseURL    string
	apiKey     string
	collection string
	http       *http.Client
}

func NewQdrantSearcher(cfg Config, client *http.Client) (*QdrantSearcher, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.QdrantURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, errors.New("qdrant collection is required")
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &QdrantSearcher{
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.QdrantAPIKey),
		collection: cfg.Collection,
		http:       client,
	}, nil
}

func (s *QdrantSearcher) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector required", ErrSearch)
	}
	if limit <= 0 {
		limit = defaultTopK
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	var points []qdrantPoint
	path := "/collections/" + url.PathEscape(s.collection) + "/points/search"
	if err := s.doJSON(ctx, http.MethodPost, path, req, &points); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(points))
	for _, p := range points {
		out = append(out, Match{ID: decodePointID(p.ID), Score: p.Score, Payload: p.Payload})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *QdrantSearcher) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrSearch, err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrSearch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrSearch, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: qdrant http status=%d body=%q", ErrSearch, resp.StatusCode, truncate(raw))
	}

	var env qdrantEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", ErrSearch, err)
	}
	if msg := envelopeError(env.Status); msg != "" {
		return fmt.Errorf("%w: %s", ErrSearch, msg)
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrSearch, err)
	}
	return nil
}

// envelopeError extracts the error from a Qdrant status, which is either the
// string "ok" or an object like {"error": "..."}.
func envelopeError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "ok") || s == "" {
			return ""
		}
		return s
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Error
	}
	return ""
}

func decodePointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

func truncate(raw []byte) string {
	const limit = 512
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
