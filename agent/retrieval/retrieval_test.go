package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	matches []Match
	err     error
	limit   int
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, limit int) ([]Match, error) {
	f.limit = limit
	return f.matches, f.err
}

func TestQdrantSearcherSearch(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"status":"ok","time":0.001,"result":[
			{"id":7,"score":0.5,"payload":{"page_content":"b"}},
			{"id":"a1","score":0.9,"payload":{"page_content":"a","metadata":{"source":"faq.pdf"}}}
		]}`)
	}))
	t.Cleanup(server.Close)

	s, err := NewQdrantSearcher(Config{QdrantURL: server.URL, QdrantAPIKey: "secret", Collection: "docs"}, server.Client())
	if err != nil {
		t.Fatalf("NewQdrantSearcher() error = %v", err)
	}
	matches, err := s.Search(context.Background(), []float32{0.1, 0.2}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/collections/docs/points/search" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("api-key = %q", gotKey)
	}
	if gotBody["limit"] != float64(2) || gotBody["with_payload"] != true {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
	if len(matches) != 2 || matches[0].ID != "a1" || matches[1].ID != "7" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestQdrantSearcherErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":{"error":"Not found: Collection missing"}}`)
			return
		}
		fmt.Fprint(w, `{"status":{"error":"Wrong input: vector dimension"}}`)
	}))
	t.Cleanup(server.Close)

	for _, collection := range []string{"missing", "docs"} {
		s, err := NewQdrantSearcher(Config{QdrantURL: server.URL, Collection: collection}, server.Client())
		if err != nil {
			t.Fatalf("NewQdrantSearcher() error = %v", err)
		}
		if _, err := s.Search(context.Background(), []float32{1}, 3); !errors.Is(err, ErrSearch) {
			t.Fatalf("Search(%s) error = %v, want ErrSearch", collection, err)
		}
	}

	s, _ := NewQdrantSearcher(Config{QdrantURL: server.URL, Collection: "docs"}, server.Client())
	if _, err := s.Search(context.Background(), nil, 3); !errors.Is(err, ErrSearch) {
		t.Fatalf("Search(empty) error = %v", err)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5]}],
			"usage":{"prompt_tokens":3,"total_tokens":3}}`)
	}))
	t.Cleanup(server.Close)

	e, err := NewOpenAIEmbedder(Config{
		EmbeddingURL:   server.URL + "/v1",
		EmbeddingKey:   "sk-test",
		EmbeddingModel: "text-embedding-3-small",
	})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder() error = %v", err)
	}
	vec, err := e.Embed(context.Background(), "opening hours")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.5 {
		t.Fatalf("Embed() = %v", vec)
	}
	if gotPath != "/v1/embeddings" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["input"] != "opening hours" || gotBody["model"] != "text-embedding-3-small" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
}

func TestRetrieverRetrieve(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{matches: []Match{
		{ID: "1", Score: 0.2, Payload: map[string]any{"page_content": "low"}},
		{ID: "2", Score: 0.8, Payload: map[string]any{"page_content": "Office hours are 9-17.", "source": "hours.md"}},
	}}
	r, err := NewRetriever(fakeEmbedder{vec: []float32{1}}, searcher, Config{TopK: 3, MinScore: 0.5})
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	res, err := r.Retrieve(context.Background(), "  office hours ", 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if searcher.limit != 3 {
		t.Fatalf("limit = %d, want default 3", searcher.limit)
	}
	if len(res.Documents) != 1 || res.Documents[0].ID != "2" {
		t.Fatalf("unexpected documents: %+v", res.Documents)
	}
	if res.Documents[0].Metadata["source"] != "hours.md" {
		t.Fatalf("metadata = %+v", res.Documents[0].Metadata)
	}
	if !strings.Contains(res.Context, "Content: Office hours are 9-17.") {
		t.Fatalf("context = %q", res.Context)
	}
}

func TestRetrieverNoResultsAndErrors(t *testing.T) {
	t.Parallel()

	r, _ := NewRetriever(fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, Config{})
	res, err := r.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if res.Context != noResultsMessage {
		t.Fatalf("context = %q", res.Context)
	}

	if _, err := r.Retrieve(context.Background(), " ", 1); err == nil {
		t.Fatal("expected error for blank query")
	}

	r, _ = NewRetriever(fakeEmbedder{err: errors.New("quota")}, &fakeSearcher{}, Config{})
	if _, err := r.Retrieve(context.Background(), "x", 1); err == nil {
		t.Fatal("expected embed error")
	}
}
