package search

import (
	"context"
	"strings"
)

// Connector is one external search provider. Fetch returns normalized
// sources or an error; the Aggregator converts errors into
// ProviderError records so a failing provider degrades the result set
// instead of the request.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int) ([]Source, error)
}

func escapeQuery(q string) string { return strings.ReplaceAll(q, " ", "+") }
