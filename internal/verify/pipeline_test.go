package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/verity/config"
	"github.com/mohammad-safakhou/verity/internal/search"
)

type fakeExtractor struct {
	result AnalysisResult
	err    error
}

func (f *fakeExtractor) Analyze(_ context.Context, _ Request) (AnalysisResult, error) {
	return f.result, f.err
}

type fakeSearcher struct {
	result    search.Result
	providers []string
	lastQuery string
	calls     int
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ search.Options) search.Result {
	f.calls++
	f.lastQuery = query
	return f.result
}

func (f *fakeSearcher) EnabledProviders() []string { return f.providers }

type fakeEngine struct {
	result CrossRefResult
}

func (f *fakeEngine) CrossReference(_ context.Context, _ []Claim, _ []search.Source) CrossRefResult {
	return f.result
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.APIKey = "sk-test"
	cfg.Pipeline.MaxResults = 10
	return cfg
}

func eiffelAnalysis() AnalysisResult {
	return AnalysisResult{
		Verdict:    VerdictUnverifiable,
		Confidence: 60,
		Claims: []Claim{
			{Text: "The Eiffel Tower is 330 meters tall.", Category: CategoryHistorical, Verifiable: true},
		},
		RedFlags:          []RedFlag{},
		Explanation:       "One measurable claim.",
		Recommendations:   "Check official measurements",
		SearchSuggestions: []string{"eiffel tower height meters"},
	}
}

func rankedEiffelSources() []search.Source {
	return []search.Source{
		{Title: "Official height", URL: "https://reuters.com/eiffel", Credibility: search.CredibilityVeryHigh, Type: search.TypeNews},
		{Title: "Tower trivia", URL: "https://forbes.com/eiffel", Credibility: search.CredibilityMedium, Type: search.TypeWeb},
		{Title: "Blog post", URL: "https://blog.example/eiffel", Credibility: search.CredibilityLow, Type: search.TypeWeb},
	}
}

func TestVerifyMissingAPIKeyFailsPreFlight(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = ""
	p := NewPipelineWithStages(cfg, &fakeExtractor{}, &fakeSearcher{}, &fakeEngine{}, nil)

	_, err := p.Verify(context.Background(), Request{Content: "x"})
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{
		result:    search.Result{Sources: rankedEiffelSources(), TotalFound: 3, Providers: []string{"newsapi", "serper"}},
		providers: []string{"newsapi", "serper"},
	}
	engine := &fakeEngine{result: CrossRefResult{
		VerificationResults: []VerificationResult{
			{Claim: "The Eiffel Tower is 330 meters tall.", Status: StatusVerifiedTrue, Confidence: 92},
		},
		OverallAssessment: OverallAssessment{Verdict: VerdictTrue, Confidence: 90, Summary: "Confirmed by multiple sources."},
	}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: eiffelAnalysis()}, searcher, engine, nil)

	resp, err := p.Verify(context.Background(), Request{Content: "The Eiffel Tower is 330 meters tall."})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if resp.Verdict != VerdictTrue || resp.Confidence != 90 {
		t.Fatalf("expected cross-reference verdict to win, got %s (%d)", resp.Verdict, resp.Confidence)
	}
	if resp.Explanation != "Confirmed by multiple sources." {
		t.Fatalf("expected cross-reference summary as explanation, got %q", resp.Explanation)
	}
	wantOrder := []search.Credibility{search.CredibilityVeryHigh, search.CredibilityMedium, search.CredibilityLow}
	for i, want := range wantOrder {
		if resp.Sources[i].Credibility != want {
			t.Fatalf("source %d: expected %s, got %s", i, want, resp.Sources[i].Credibility)
		}
	}
	if searcher.lastQuery != "eiffel tower height meters" {
		t.Fatalf("expected model-suggested query, got %q", searcher.lastQuery)
	}
}

func TestVerifyDegradedCrossReferenceFallsBackToAnalysis(t *testing.T) {
	searcher := &fakeSearcher{result: search.Result{Sources: rankedEiffelSources()}}
	engine := &fakeEngine{result: CrossRefResult{
		VerificationResults: []VerificationResult{},
		OverallAssessment:   OverallAssessment{Verdict: VerdictAnalysisError, Confidence: 0},
	}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: eiffelAnalysis()}, searcher, engine, nil)

	resp, err := p.Verify(context.Background(), Request{Content: "x"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if resp.Verdict != VerdictUnverifiable || resp.Confidence != 60 {
		t.Fatalf("expected analysis verdict to survive degradation, got %s (%d)", resp.Verdict, resp.Confidence)
	}
	if resp.SourceVerification.OverallAssessment.Verdict != VerdictAnalysisError {
		t.Fatal("degradation marker must stay visible in source_verification")
	}
}

func TestVerifyInsufficientDataFallsBackToAnalysis(t *testing.T) {
	searcher := &fakeSearcher{result: search.Result{Sources: []search.Source{}}}
	engine := &fakeEngine{result: CrossRefResult{
		VerificationResults: []VerificationResult{},
		OverallAssessment:   OverallAssessment{Verdict: VerdictInsufficientData},
	}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: eiffelAnalysis()}, searcher, engine, nil)

	resp, err := p.Verify(context.Background(), Request{Content: "x"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if resp.Verdict != VerdictUnverifiable || resp.Confidence != 60 {
		t.Fatalf("expected analysis verdict, got %s (%d)", resp.Verdict, resp.Confidence)
	}
}

func TestVerifyNoOptionalProvidersUsesOnlyMandatory(t *testing.T) {
	searcher := &fakeSearcher{result: search.Result{Sources: []search.Source{}}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: eiffelAnalysis()}, searcher, &fakeEngine{}, nil)

	resp, err := p.Verify(context.Background(), Request{Content: "x"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(resp.Metadata.APIsUsed) != 1 || resp.Metadata.APIsUsed[0] != "openai" {
		t.Fatalf("expected only the mandatory provider, got %v", resp.Metadata.APIsUsed)
	}
}

func TestVerifySurfacesProviderErrorsWithoutFailing(t *testing.T) {
	searcher := &fakeSearcher{result: search.Result{
		Sources:   []search.Source{},
		Providers: []string{"newsapi"},
		Errors:    []search.ProviderError{{Provider: "newsapi", Message: "rate limited"}},
	}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: eiffelAnalysis()}, searcher, &fakeEngine{}, nil)

	resp, err := p.Verify(context.Background(), Request{Content: "x"})
	if err != nil {
		t.Fatalf("provider errors must not fail the pipeline: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success with shortfall recorded")
	}
	if len(resp.Metadata.SearchErrors) != 1 || resp.Metadata.SearchErrors[0] != "newsapi: rate limited" {
		t.Fatalf("unexpected search_errors: %v", resp.Metadata.SearchErrors)
	}
}

func TestVerifyAnalyzerFailureFailsRequest(t *testing.T) {
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{err: errors.New("connection refused")},
		&fakeSearcher{}, &fakeEngine{}, nil)

	if _, err := p.Verify(context.Background(), Request{Content: "x"}); err == nil {
		t.Fatal("expected error when claim extraction is unreachable")
	}
}

func TestVerifyQueryFallsBackToClaimText(t *testing.T) {
	analysis := eiffelAnalysis()
	analysis.SearchSuggestions = []string{}
	searcher := &fakeSearcher{result: search.Result{Sources: []search.Source{}}}
	p := NewPipelineWithStages(testConfig(), &fakeExtractor{result: analysis}, searcher, &fakeEngine{}, nil)

	if _, err := p.Verify(context.Background(), Request{Content: "ignored"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if searcher.lastQuery != "The Eiffel Tower is 330 meters tall." {
		t.Fatalf("expected claim text query, got %q", searcher.lastQuery)
	}
}
