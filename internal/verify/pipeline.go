package verify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/verity/config"
	"github.com/mohammad-safakhou/verity/internal/cache"
	"github.com/mohammad-safakhou/verity/internal/llm"
	"github.com/mohammad-safakhou/verity/internal/search"
	"github.com/mohammad-safakhou/verity/internal/telemetry"
)

// State tracks a verification request through the pipeline. Failed is
// terminal and reachable only from a pre-flight configuration check or
// an erroring claim-extraction call; the later stages degrade instead.
type State string

const (
	StateReceived         State = "received"
	StateAnalyzing        State = "analyzing"
	StateSearching        State = "searching"
	StateCrossReferencing State = "cross_referencing"
	StateAssembling       State = "assembling"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// ConfigurationError marks a missing mandatory credential. It is the
// only error class that rejects a request before the pipeline starts.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + e.Missing
}

// ClaimExtractor is the analysis stage seen by the orchestrator.
type ClaimExtractor interface {
	Analyze(ctx context.Context, req Request) (AnalysisResult, error)
}

// Searcher is the aggregation stage seen by the orchestrator.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) search.Result
	EnabledProviders() []string
}

// CrossReferencer is the synthesis stage seen by the orchestrator.
type CrossReferencer interface {
	CrossReference(ctx context.Context, claims []Claim, sources []search.Source) CrossRefResult
}

// Pipeline sequences analysis, source aggregation and cross-referencing
// into one verification pass, applying the partial-failure policy at
// each boundary.
type Pipeline struct {
	cfg       *config.Config
	analyzer  ClaimExtractor
	searcher  Searcher
	engine    CrossReferencer
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewPipeline wires the production stages from configuration.
func NewPipeline(cfg *config.Config, store cache.Store, tele *telemetry.Telemetry) *Pipeline {
	provider := llm.NewOpenAIProvider(cfg.LLM)
	return &Pipeline{
		cfg:       cfg,
		analyzer:  NewAnalyzer(provider, cfg.LLM.Timeout),
		searcher:  search.NewAggregator(cfg, store, tele),
		engine:    NewCrossRefEngine(provider, cfg.LLM.Timeout),
		telemetry: tele,
		logger:    log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// NewPipelineWithStages wires explicit stages; used by tests.
func NewPipelineWithStages(cfg *config.Config, analyzer ClaimExtractor, searcher Searcher, engine CrossReferencer, tele *telemetry.Telemetry) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		analyzer:  analyzer,
		searcher:  searcher,
		engine:    engine,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// Verify runs one end-to-end verification. The only error returns are a
// ConfigurationError from the pre-flight credential check and a failed
// claim-extraction call; search and cross-reference shortfalls surface
// inside the response instead.
func (p *Pipeline) Verify(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	id := uuid.New().String()
	p.transition(id, StateReceived)

	if p.cfg.LLM.APIKey == "" {
		p.transition(id, StateFailed)
		p.telemetry.RecordVerification("failed")
		return nil, &ConfigurationError{Missing: "OpenAI API key"}
	}

	p.transition(id, StateAnalyzing)
	stageStart := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, req)
	p.telemetry.ObserveStageDuration("analyze", time.Since(stageStart))
	if err != nil {
		p.transition(id, StateFailed)
		p.telemetry.RecordVerification("failed")
		return nil, err
	}

	p.transition(id, StateSearching)
	stageStart = time.Now()
	query := searchQuery(analysis, req.Content)
	searchResult := p.searcher.Search(ctx, query, search.Options{
		IncludeNews:      true,
		IncludeWeb:       true,
		IncludeFactCheck: true,
		MaxResults:       p.cfg.Pipeline.MaxResults,
	})
	p.telemetry.ObserveStageDuration("search", time.Since(stageStart))

	p.transition(id, StateCrossReferencing)
	stageStart = time.Now()
	crossRef := p.engine.CrossReference(ctx, analysis.Claims, searchResult.Sources)
	p.telemetry.ObserveStageDuration("crossref", time.Since(stageStart))

	p.transition(id, StateAssembling)
	resp := p.assemble(analysis, searchResult, crossRef, start)

	p.transition(id, StateDone)
	p.telemetry.ObserveStageDuration("total", time.Since(start))
	p.telemetry.RecordVerification(string(resp.Verdict))
	p.logger.Printf("request %s done: verdict %s (%d%%), %d sources, %d provider errors, %dms",
		id, resp.Verdict, resp.Confidence, len(resp.Sources), len(searchResult.Errors), resp.Metadata.ProcessingTimeMs)
	return resp, nil
}

// assemble merges the stage outputs into the caller-facing response.
// A degraded cross-reference keeps its marker in source_verification
// but the final verdict and confidence fall back to the analysis.
func (p *Pipeline) assemble(analysis AnalysisResult, searchResult search.Result, crossRef CrossRefResult, start time.Time) *Response {
	verdict := analysis.Verdict
	confidence := analysis.Confidence
	explanation := analysis.Explanation
	if !crossRef.OverallAssessment.Degraded() {
		verdict = crossRef.OverallAssessment.Verdict
		confidence = crossRef.OverallAssessment.Confidence
		if crossRef.OverallAssessment.Summary != "" {
			explanation = crossRef.OverallAssessment.Summary
		}
	}

	apisUsed := append([]string{"openai"}, searchResult.Providers...)
	searchErrors := make([]string, 0, len(searchResult.Errors))
	for _, e := range searchResult.Errors {
		searchErrors = append(searchErrors, fmt.Sprintf("%s: %s", e.Provider, e.Message))
	}

	return &Response{
		Success:            true,
		Verdict:            verdict,
		Confidence:         confidence,
		Explanation:        explanation,
		InitialAnalysis:    analysis,
		SourceVerification: crossRef,
		Sources:            searchResult.Sources,
		Recommendations:    analysis.Recommendations,
		Metadata: Metadata{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Timestamp:        time.Now().UTC(),
			APIsUsed:         apisUsed,
			SearchErrors:     searchErrors,
		},
	}
}

func (p *Pipeline) transition(id string, s State) {
	p.logger.Printf("request %s: %s", id, s)
}

// searchQuery picks the evidence query: the first model-suggested
// search, else the first verifiable claim, else the content itself.
func searchQuery(analysis AnalysisResult, content string) string {
	for _, s := range analysis.SearchSuggestions {
		if s != "" {
			return s
		}
	}
	for _, c := range analysis.Claims {
		if c.Verifiable && c.Text != "" {
			return c.Text
		}
	}
	return truncate(content, 160)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
