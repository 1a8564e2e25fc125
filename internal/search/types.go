package search

import "time"

// SourceType classifies where a source came from.
type SourceType string

const (
	TypeNews      SourceType = "news"
	TypeWeb       SourceType = "web"
	TypeFactCheck SourceType = "fact_check"
)

// Credibility is the coarse trust tier assigned to a source. It drives
// both display and sort order.
type Credibility string

const (
	CredibilityVeryHigh Credibility = "very_high"
	CredibilityHigh     Credibility = "high"
	CredibilityMedium   Credibility = "medium"
	CredibilityLow      Credibility = "low"
)

var credibilityRank = map[Credibility]int{
	CredibilityVeryHigh: 4,
	CredibilityHigh:     3,
	CredibilityMedium:   2,
	CredibilityLow:      1,
}

// Rank returns the sort weight of a tier; unknown tiers rank lowest.
func (c Credibility) Rank() int { return credibilityRank[c] }

// Source is one normalized search result. Within one aggregated result
// set no two sources share a URL (or title, when the URL is absent).
type Source struct {
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Snippet     string      `json:"snippet"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	SourceName  string      `json:"source_name"`
	Type        SourceType  `json:"type"`
	Credibility Credibility `json:"credibility"`
}

// ProviderError records one connector failure. Non-fatal: it travels in
// the aggregation result instead of aborting it.
type ProviderError struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

func (e ProviderError) Error() string { return e.Provider + ": " + e.Message }

// Options selects which connectors one aggregation exercises.
type Options struct {
	IncludeNews      bool `json:"include_news"`
	IncludeWeb       bool `json:"include_web"`
	IncludeFactCheck bool `json:"include_fact_check"`
	MaxResults       int  `json:"max_results"`
}

// Result is the outcome of one aggregation: ranked deduplicated sources,
// the pre-truncation count, the connectors that were invoked, and any
// per-provider errors. Never mutated after creation; re-aggregation
// builds a fresh one.
type Result struct {
	Sources    []Source        `json:"sources"`
	TotalFound int             `json:"total_found"`
	Providers  []string        `json:"providers"`
	Errors     []ProviderError `json:"errors"`
}
