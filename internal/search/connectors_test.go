package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/verity/config"
)

func TestNewsAPIConnectorNormalizesArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "eiffel tower" {
			t.Errorf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"articles":[
			{"title":"Tower news","url":"https://example.com/t","description":" trimmed ","publishedAt":"2025-08-30T10:00:00Z","source":{"name":"Example"}},
			{"title":"","url":"","description":"dropped"},
			{"title":"No date","url":"https://example.com/n","publishedAt":"not-a-date","source":{"name":"Example"}}
		]}`))
	}))
	defer srv.Close()

	c := NewNewsAPIConnector(config.NewsAPIConfig{APIKey: "test-key", Endpoint: srv.URL},
		NewHTTPClient(2*time.Second, 0, 0))
	sources, err := c.Fetch(context.Background(), "eiffel tower", 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	first := sources[0]
	if first.Snippet != "trimmed" {
		t.Fatalf("expected trimmed snippet, got %q", first.Snippet)
	}
	if first.Type != TypeNews || first.SourceName != "Example" {
		t.Fatalf("unexpected normalization: %+v", first)
	}
	if first.PublishedAt == nil {
		t.Fatal("expected published_at parsed")
	}
	if sources[1].PublishedAt != nil {
		t.Fatal("unparseable published_at must stay nil")
	}
}

func TestNewsAPIConnectorPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"rateLimited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewNewsAPIConnector(config.NewsAPIConfig{APIKey: "k", Endpoint: srv.URL},
		NewHTTPClient(2*time.Second, 0, 0))
	if _, err := c.Fetch(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestGNewsConnectorNormalizesArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "g-key" {
			t.Errorf("expected apikey in query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"articles":[
			{"title":"Backfill story","url":"https://example.com/g","description":"d","publishedAt":"2025-08-29T00:00:00Z","source":{"name":"GSource"}}
		]}`))
	}))
	defer srv.Close()

	c := NewGNewsConnector(config.GNewsConfig{APIKey: "g-key", Endpoint: srv.URL},
		NewHTTPClient(2*time.Second, 0, 0))
	sources, err := c.Fetch(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(sources) != 1 || sources[0].Type != TypeNews || sources[0].SourceName != "GSource" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestCredibilityForURL(t *testing.T) {
	cases := []struct {
		url  string
		want Credibility
	}{
		{"https://www.reuters.com/world/story", CredibilityVeryHigh},
		{"https://apnews.com/article/x", CredibilityVeryHigh},
		{"https://www.nytimes.com/2025/08/30/x.html", CredibilityHigh},
		{"https://en.wikipedia.org/wiki/Eiffel_Tower", CredibilityMedium},
		{"https://some-random-blog.example/post", CredibilityLow},
		{"not a url", CredibilityLow},
		{"", CredibilityLow},
	}
	for _, tc := range cases {
		if got := CredibilityForURL(tc.url); got != tc.want {
			t.Errorf("CredibilityForURL(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}

func TestCredibilityRankOrdering(t *testing.T) {
	if CredibilityVeryHigh.Rank() <= CredibilityHigh.Rank() ||
		CredibilityHigh.Rank() <= CredibilityMedium.Rank() ||
		CredibilityMedium.Rank() <= CredibilityLow.Rank() {
		t.Fatal("tier ranks must be strictly descending")
	}
}
