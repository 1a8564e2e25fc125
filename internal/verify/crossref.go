package verify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verity/internal/llm"
	"github.com/mohammad-safakhou/verity/internal/llmjson"
	"github.com/mohammad-safakhou/verity/internal/search"
)

// maxCrossRefSources bounds how many ranked sources are shown to the
// reasoning model. The aggregator's ordering decides which make the cut.
const maxCrossRefSources = 8

const crossRefPrompt = `You are a fact-checking analyst. Cross-reference each claim below against the listed sources and judge whether the evidence supports it.

Respond with ONLY a JSON object in exactly this shape:
{
  "verification_results": [
    {"claim": "...", "status": "verified_true" | "verified_false" | "partially_true" | "contradicted" | "no_evidence", "confidence": <integer 0-100>, "explanation": "..."}
  ],
  "overall_assessment": {"verdict": "true" | "likely_fake" | "misleading" | "unverifiable", "confidence": <integer 0-100>, "summary": "..."},
  "source_quality": {"total_sources": <int>, "high_credibility_sources": <int>, "recent_sources": <int>, "consensus_level": "strong" | "moderate" | "weak" | "none"}
}

Claims:
%s

Sources:
%s`

// CrossRefEngine matches extracted claims against aggregated sources
// through a reasoning model. It never fails the pipeline: every failure
// mode degrades to a marker assessment the orchestrator can merge past.
type CrossRefEngine struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *log.Logger
}

func NewCrossRefEngine(provider llm.Provider, timeout time.Duration) *CrossRefEngine {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CrossRefEngine{
		provider: provider,
		timeout:  timeout,
		logger:   log.New(log.Writer(), "[CROSSREF] ", log.LstdFlags),
	}
}

// CrossReference verifies claims against sources. With no claims or no
// sources it short-circuits to insufficient_data without touching the
// model; an unreachable model or unparseable reply yields analysis_error
// with confidence 0.
func (e *CrossRefEngine) CrossReference(ctx context.Context, claims []Claim, sources []search.Source) CrossRefResult {
	if len(claims) == 0 || len(sources) == 0 {
		e.logger.Printf("skipping cross-reference: %d claims, %d sources", len(claims), len(sources))
		return CrossRefResult{
			VerificationResults: []VerificationResult{},
			OverallAssessment:   OverallAssessment{Verdict: VerdictInsufficientData},
			SourceQuality:       summarizeSources(sources),
		}
	}

	if len(sources) > maxCrossRefSources {
		sources = sources[:maxCrossRefSources]
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(crossRefPrompt, renderClaims(claims), renderSources(sources))
	raw, err := e.provider.Generate(ctx, prompt)
	if err != nil {
		e.logger.Printf("reasoning call failed: %v", err)
		return degradedCrossRef(sources)
	}

	var result CrossRefResult
	if err := llmjson.Decode(raw, &result); err != nil {
		e.logger.Printf("unparseable cross-reference output: %v", err)
		return degradedCrossRef(sources)
	}
	normalizeCrossRef(&result, sources)
	e.logger.Printf("cross-referenced %d claims, verdict %s (%d%%)",
		len(result.VerificationResults), result.OverallAssessment.Verdict, result.OverallAssessment.Confidence)
	return result
}

func degradedCrossRef(sources []search.Source) CrossRefResult {
	return CrossRefResult{
		VerificationResults: []VerificationResult{},
		OverallAssessment:   OverallAssessment{Verdict: VerdictAnalysisError, Confidence: 0},
		SourceQuality:       summarizeSources(sources),
	}
}

func normalizeCrossRef(r *CrossRefResult, sources []search.Source) {
	if r.VerificationResults == nil {
		r.VerificationResults = []VerificationResult{}
	}
	for i := range r.VerificationResults {
		r.VerificationResults[i].Confidence = clampConfidence(r.VerificationResults[i].Confidence)
		if r.VerificationResults[i].SupportingSources == nil {
			r.VerificationResults[i].SupportingSources = []search.Source{}
		}
		if r.VerificationResults[i].ContradictingSources == nil {
			r.VerificationResults[i].ContradictingSources = []search.Source{}
		}
	}
	r.OverallAssessment.Confidence = clampConfidence(r.OverallAssessment.Confidence)
	switch r.OverallAssessment.Verdict {
	case VerdictTrue, VerdictLikelyFake, VerdictMisleading, VerdictUnverifiable:
	default:
		r.OverallAssessment = OverallAssessment{Verdict: VerdictAnalysisError, Confidence: 0}
	}
	if r.SourceQuality == (SourceQuality{}) {
		r.SourceQuality = summarizeSources(sources)
	}
}

// summarizeSources computes source quality locally so the summary is
// available even when the model never ran or ignored the field.
func summarizeSources(sources []search.Source) SourceQuality {
	q := SourceQuality{TotalSources: len(sources), ConsensusLevel: ConsensusNone}
	cutoff := time.Now().AddDate(0, -6, 0)
	for _, s := range sources {
		if s.Credibility == search.CredibilityVeryHigh || s.Credibility == search.CredibilityHigh {
			q.HighCredibilitySources++
		}
		if s.PublishedAt != nil && s.PublishedAt.After(cutoff) {
			q.RecentSources++
		}
	}
	return q
}

func renderClaims(claims []Claim) string {
	var b strings.Builder
	for i, c := range claims {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, c.Category, c.Text)
	}
	return b.String()
}

func renderSources(sources []search.Source) string {
	var b strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s (%s, credibility: %s)\n   %s\n   %s\n",
			i+1, s.Title, s.SourceName, s.Credibility, s.URL, s.Snippet)
	}
	return b.String()
}
