package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verity/config"
)

// NewsAPIConnector is the primary news connector, backed by newsapi.org.
type NewsAPIConnector struct {
	cfg  config.NewsAPIConfig
	http *HTTPClient
}

func NewNewsAPIConnector(cfg config.NewsAPIConfig, http *HTTPClient) *NewsAPIConnector {
	return &NewsAPIConnector{cfg: cfg, http: http}
}

func (n *NewsAPIConnector) Name() string { return "newsapi" }

func (n *NewsAPIConnector) Fetch(ctx context.Context, query string, limit int) ([]Source, error) {
	endpoint := n.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	var resp struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	url := fmt.Sprintf("%s?q=%s&language=en&sortBy=publishedAt&pageSize=%d", endpoint, escapeQuery(query), limit)
	headers := map[string]string{"X-Api-Key": n.cfg.APIKey}
	if err := n.http.DoJSON(ctx, "GET", url, headers, nil, &resp); err != nil {
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
