package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verity/config"
)

// GNewsConnector is the secondary news connector, backed by gnews.io.
// It only runs as backfill when the primary news connector comes up
// short; the Aggregator owns that decision.
type GNewsConnector struct {
	cfg  config.GNewsConfig
	http *HTTPClient
}

func NewGNewsConnector(cfg config.GNewsConfig, http *HTTPClient) *GNewsConnector {
	return &GNewsConnector{cfg: cfg, http: http}
}

func (g *GNewsConnector) Name() string { return "gnews" }

func (g *GNewsConnector) Fetch(ctx context.Context, query string, limit int) ([]Source, error) {
	endpoint := g.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://gnews.io/api/v4/search"
	}
	var resp struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	url := fmt.Sprintf("%s?q=%s&lang=en&max=%d&apikey=%s", endpoint, escapeQuery(query), limit, g.cfg.APIKey)
	if err := g.http.DoJSON(ctx, "GET", url, nil, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]Source, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" && a.Title == "" {
			continue
		}
		s := Source{
			Title:      a.Title,
			URL:        a.URL,
			Snippet:    strings.TrimSpace(a.Description),
			SourceName: a.Source.Name,
			Type:       TypeNews,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			s.PublishedAt = &ts
		}
		out = append(out, s)
	}
	return out, nil
}
