package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/verity/config"
	"github.com/mohammad-safakhou/verity/internal/cache"
	"github.com/mohammad-safakhou/verity/internal/telemetry"
)

// Aggregator fans out one query to every enabled connector, merges and
// ranks what comes back, and caches the finished result. Connectors are
// fixed at construction from the injected configuration; a missing
// credential silently leaves that connector out.
type Aggregator struct {
	news      Connector
	web       Connector
	factCheck Connector
	backfill  Connector

	cache            cache.Store
	cacheTTL         time.Duration
	connectorTimeout time.Duration
	minNewsResults   int
	maxResults       int

	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewAggregator builds connectors from configured credentials.
func NewAggregator(cfg *config.Config, store cache.Store, tele *telemetry.Telemetry) *Aggregator {
	httpc := NewHTTPClient(cfg.Pipeline.ConnectorTimeout, 2, 300*time.Millisecond)

	a := &Aggregator{
		cache:            store,
		cacheTTL:         cfg.Pipeline.CacheTTL,
		connectorTimeout: cfg.Pipeline.ConnectorTimeout,
		minNewsResults:   cfg.Pipeline.MinNewsResults,
		maxResults:       cfg.Pipeline.MaxResults,
		telemetry:        tele,
		logger:           log.New(log.Writer(), "[AGGREGATOR] ", log.LstdFlags),
	}
	if cfg.Sources.NewsAPI.APIKey != "" {
		a.news = NewNewsAPIConnector(cfg.Sources.NewsAPI, httpc)
	}
	if cfg.Sources.WebSearch.SerperAPIKey != "" {
		a.web = NewSerperConnector(cfg.Sources.WebSearch, httpc)
		a.factCheck = NewFactCheckConnector(cfg.Sources.WebSearch, httpc)
	}
	if cfg.Sources.GNews.APIKey != "" {
		a.backfill = NewGNewsConnector(cfg.Sources.GNews, httpc)
	}
	return a
}

// NewAggregatorWithConnectors wires explicit connectors; used by tests
// and anything that needs fakes.
func NewAggregatorWithConnectors(news, web, factCheck, backfill Connector, store cache.Store, ttl, timeout time.Duration, minNewsResults, maxResults int) *Aggregator {
	return &Aggregator{
		news:             news,
		web:              web,
		factCheck:        factCheck,
		backfill:         backfill,
		cache:            store,
		cacheTTL:         ttl,
		connectorTimeout: timeout,
		minNewsResults:   minNewsResults,
		maxResults:       maxResults,
		logger:           log.New(log.Writer(), "[AGGREGATOR] ", log.LstdFlags),
	}
}

// EnabledProviders lists the connectors the configuration turned on.
func (a *Aggregator) EnabledProviders() []string {
	var out []string
	for _, c := range []Connector{a.news, a.web, a.factCheck, a.backfill} {
		if c != nil {
			out = append(out, c.Name())
		}
	}
	return out
}

type fetchOutcome struct {
	connector Connector
	sources   []Source
	err       error
}

// Search aggregates sources for one query. It consults the cache first;
// on a miss it invokes every enabled, requested connector concurrently,
// waits for all of them to settle, then merges, deduplicates, scores,
// ranks, truncates, and caches the result. All connectors failing still
// produces a valid (empty) result.
func (a *Aggregator) Search(ctx context.Context, query string, opts Options) Result {
	if opts.MaxResults <= 0 {
		opts.MaxResults = a.maxResults
	}

	key := cacheKey(query, opts)
	if data, ok := a.cache.Get(ctx, key); ok {
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil {
			a.logger.Printf("cache hit for %q", query)
			a.telemetry.RecordCacheHit()
			return cached
		}
		// A corrupt entry behaves like a miss.
		a.cache.Delete(ctx, key)
	}
	a.telemetry.RecordCacheMiss()

	var runs []Connector
	if opts.IncludeNews && a.news != nil {
		runs = append(runs, a.news)
	}
	if opts.IncludeWeb && a.web != nil {
		runs = append(runs, a.web)
	}
	if opts.IncludeFactCheck && a.factCheck != nil {
		runs = append(runs, a.factCheck)
	}

	outcomes := make([]fetchOutcome, len(runs))
	var wg sync.WaitGroup
	for i, c := range runs {
		wg.Add(1)
		go func(i int, c Connector) {
			defer wg.Done()
			outcomes[i] = a.fetch(ctx, c, query, opts.MaxResults)
		}(i, c)
	}
	wg.Wait()

	result := Result{Sources: []Source{}, Errors: []ProviderError{}}
	var merged []Source
	newsYield := 0
	for _, oc := range outcomes {
		result.Providers = append(result.Providers, oc.connector.Name())
		if oc.err != nil {
			a.logger.Printf("provider %s failed: %v", oc.connector.Name(), oc.err)
			a.telemetry.RecordProviderError(oc.connector.Name())
			result.Errors = append(result.Errors, ProviderError{Provider: oc.connector.Name(), Message: oc.err.Error()})
			continue
		}
		if oc.connector == a.news {
			newsYield = len(oc.sources)
		}
		merged = append(merged, oc.sources...)
	}

	// Backfill runs only when the primary news connector was asked and
	// came back under its minimum.
	if opts.IncludeNews && a.news != nil &&
		a.backfill != nil && newsYield < a.minNewsResults {
		oc := a.fetch(ctx, a.backfill, query, opts.MaxResults)
		result.Providers = append(result.Providers, oc.connector.Name())
		if oc.err != nil {
			a.logger.Printf("backfill %s failed: %v", oc.connector.Name(), oc.err)
			a.telemetry.RecordProviderError(oc.connector.Name())
			result.Errors = append(result.Errors, ProviderError{Provider: oc.connector.Name(), Message: oc.err.Error()})
		} else {
			merged = append(merged, oc.sources...)
		}
	}

	deduped := dedupe(merged)
	for i := range deduped {
		if deduped[i].Credibility == "" {
			deduped[i].Credibility = CredibilityForURL(deduped[i].URL)
		}
	}
	rank(deduped)

	result.TotalFound = len(deduped)
	if len(deduped) > opts.MaxResults {
		deduped = deduped[:opts.MaxResults]
	}
	result.Sources = deduped

	if data, err := json.Marshal(result); err == nil {
		a.cache.Set(ctx, key, data, a.cacheTTL)
	}
	return result
}

func (a *Aggregator) fetch(ctx context.Context, c Connector, query string, limit int) fetchOutcome {
	ctx, cancel := context.WithTimeout(ctx, a.connectorTimeout)
	defer cancel()
	start := time.Now()
	sources, err := c.Fetch(ctx, query, limit)
	a.telemetry.ObserveProviderDuration(c.Name(), time.Since(start))
	return fetchOutcome{connector: c, sources: sources, err: err}
}

// dedupe collapses sources sharing a URL, falling back to the lowercase
// title when the URL is absent. First occurrence wins, so merge order
// (news, web, fact-check, backfill) decides survivors.
func dedupe(in []Source) []Source {
	seen := make(map[string]struct{}, len(in))
	out := make([]Source, 0, len(in))
	for _, s := range in {
		k := s.URL
		if k == "" {
			k = strings.ToLower(s.Title)
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// rank orders by credibility tier descending, then by publish recency
// descending; a missing publish date sorts as oldest.
func rank(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		ri, rj := sources[i].Credibility.Rank(), sources[j].Credibility.Rank()
		if ri != rj {
			return ri > rj
		}
		ti, tj := publishedOrZero(sources[i]), publishedOrZero(sources[j])
		return ti.After(tj)
	})
}

func publishedOrZero(s Source) time.Time {
	if s.PublishedAt == nil {
		return time.Time{}
	}
	return *s.PublishedAt
}

// cacheKey builds a deterministic key from the canonicalized query and a
// stable, order-independent rendering of the options.
func cacheKey(query string, opts Options) string {
	canonical := strings.ToLower(strings.Join(strings.Fields(query), " "))
	material := fmt.Sprintf("%s|news=%t|web=%t|factcheck=%t|max=%d",
		canonical, opts.IncludeNews, opts.IncludeWeb, opts.IncludeFactCheck, opts.MaxResults)
	sum := sha256.Sum256([]byte(material))
	return "search:" + hex.EncodeToString(sum[:])
}
