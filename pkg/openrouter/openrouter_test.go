package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
)

func TestNewRequiresModel(t *testing.T) {
	t.Parallel()

	cfg := &Config{BaseURL: "https://openrouter.ai/api/v1", APIKey: "k", Model: "  "}
	if _, err := cfg.New(context.Background()); !errors.Is(err, ErrModelRequired) {
		t.Fatalf("New() error = %v, want ErrModelRequired", err)
	}

	cfg = &Config{APIKey: "k", Model: "openai/gpt-4o-mini"}
	if _, err := cfg.New(context.Background()); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("New() error = %v, want ErrBaseURLRequired", err)
	}
}

func TestNewBuildsChatModel(t *testing.T) {
	t.Parallel()

	cfg := &Config{BaseURL: "https://openrouter.ai/api/v1/", APIKey: "k", Model: "x-ai/grok-4.1-fast", Timeout: time.Second}
	m, err := cfg.New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m == nil {
		t.Fatal("New() returned nil model")
	}
}

func TestNewClientWithoutKey(t *testing.T) {
	t.Parallel()

	if c := NewClient(Config{BaseURL: "https://openrouter.ai/api/v1", APIKey: " "}); c != nil {
		t.Fatal("expected nil client without api key")
	}
}

func TestNewClientSendsAttributionHeaders(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var path, referer, title, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		path = r.URL.Path
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:  srv.URL + "/api/v1/",
		APIKey:   "secret",
		Timeout:  5 * time.Second,
		SiteURL:  "https://example.com",
		SiteName: "Customer Service",
	})
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if _, err := client.Models.List(context.Background(), option.WithMaxRetries(0)); err != nil {
		t.Fatalf("Models.List() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if path != "/api/v1/models" {
		t.Fatalf("path = %q", path)
	}
	if referer != "https://example.com" || title != "Customer Service" {
		t.Fatalf("attribution headers = %q, %q", referer, title)
	}
	if auth != "Bearer secret" {
		t.Fatalf("Authorization = %q", auth)
	}
}

func TestNewClientTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	start := time.Now()
	if _, err := client.Models.List(context.Background(), option.WithMaxRetries(0)); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("request took %v, timeout not applied", elapsed)
	}
}

func TestHTTPClientWithoutAttribution(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Clone()
		mu.Unlock()
	}))
	defer srv.Close()

	resp, err := Config{}.HTTPClient().Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	_ = resp.Body.Close()
	mu.Lock()
	defer mu.Unlock()
	if got.Get("HTTP-Referer") != "" || got.Get("X-Title") != "" {
		t.Fatalf("unexpected attribution headers: %v", got)
	}
}
