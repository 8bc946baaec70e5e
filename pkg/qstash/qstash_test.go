package qstash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishJSON(t *testing.T) {
	t.Parallel()

	var (
		gotPath  string
		gotAuth  string
		gotDedup string
		gotRetry string
		gotBody  map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotRetry = r.Header.Get("Upstash-Retries")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_1"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		URL:         server.URL,
		Token:       "token",
		Destination: "https://hooks.example.com/appointments",
		Retries:     2,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	out, err := client.PublishJSON(context.Background(), map[string]any{"type": "appointment.created"}, "evt-1")
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if out.MessageID != "msg_1" {
		t.Fatalf("MessageID = %q, want msg_1", out.MessageID)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/appointments" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotDedup != "evt-1" {
		t.Fatalf("dedup header = %q, want evt-1", gotDedup)
	}
	if gotRetry != "2" {
		t.Fatalf("retries header = %q, want 2", gotRetry)
	}
	if gotBody["type"] != "appointment.created" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
}

func TestPublishJSONHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid token"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{
		URL:         server.URL,
		Token:       "bad",
		Destination: "https://hooks.example.com/appointments",
	})

	_, err := client.PublishJSON(context.Background(), map[string]any{}, "")
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
}

func TestNewClientRejectsMissingDestination(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Token: "t"}); err == nil {
		t.Fatal("expected error for missing destination")
	}
}
