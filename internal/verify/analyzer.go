package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verity/internal/llm"
	"github.com/mohammad-safakhou/verity/internal/llmjson"
)

const analysisPrompt = `You are a fact-checking analyst. Examine the following content and extract every individually verifiable factual claim.

Respond with ONLY a JSON object in exactly this shape:
{
  "verdict": "true" | "likely_fake" | "misleading" | "unverifiable",
  "confidence": <integer 0-100>,
  "claims": [
    {"text": "...", "category": "historical" | "scientific" | "current_events" | "statistics" | "other", "time_sensitive": true|false, "verifiable": true|false}
  ],
  "red_flags": [{"description": "...", "severity": "low" | "medium" | "high"}],
  "explanation": "...",
  "recommendations": "...",
  "context_analysis": "...",
  "search_suggestions": ["short search query", ...]
}

Content to analyze:
%s`

const imageAnalysisPrompt = `You are a fact-checking analyst. Examine the attached image, transcribe any textual claims it contains, and extract every individually verifiable factual claim.

Respond with ONLY a JSON object in exactly this shape:
{
  "verdict": "true" | "likely_fake" | "misleading" | "unverifiable",
  "confidence": <integer 0-100>,
  "claims": [
    {"text": "...", "category": "historical" | "scientific" | "current_events" | "statistics" | "other", "time_sensitive": true|false, "verifiable": true|false}
  ],
  "red_flags": [{"description": "...", "severity": "low" | "medium" | "high"}],
  "explanation": "...",
  "recommendations": "...",
  "context_analysis": "...",
  "search_suggestions": ["short search query", ...]
}`

// Analyzer extracts claims from submitted content through a language
// model and guarantees a complete AnalysisResult even when the model
// replies with something unparseable.
type Analyzer struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *log.Logger
}

func NewAnalyzer(provider llm.Provider, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Analyzer{
		provider: provider,
		timeout:  timeout,
		logger:   log.New(log.Writer(), "[ANALYZER] ", log.LstdFlags),
	}
}

// Analyze runs claim extraction. A malformed model reply degrades to
// the deterministic fallback result; only an unreachable or erroring
// model is returned as an error, which fails the whole request.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		raw string
		err error
	)
	if req.Image != nil {
		raw, err = a.provider.GenerateWithImage(ctx, imageAnalysisPrompt, llm.ImageInput{
			MIMEType: req.Image.MIMEType,
			Data:     req.Image.Data,
		})
	} else {
		raw, err = a.provider.Generate(ctx, fmt.Sprintf(analysisPrompt, req.Content))
	}
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("claim extraction failed: %w", err)
	}

	var result AnalysisResult
	if err := llmjson.Decode(raw, &result); err != nil {
		var perr *llmjson.ParseError
		if errors.As(err, &perr) {
			a.logger.Printf("unparseable analysis output, using fallback (%d bytes)", len(perr.Raw))
			return fallbackAnalysis(perr.Raw), nil
		}
		return AnalysisResult{}, err
	}
	normalizeAnalysis(&result)
	a.logger.Printf("extracted %d claims, verdict %s (%d%%)", len(result.Claims), result.Verdict, result.Confidence)
	return result, nil
}

// fallbackAnalysis is the deterministic substitute for malformed model
// output. It keeps the raw reply visible in the explanation so nothing
// the model said is silently dropped.
func fallbackAnalysis(raw string) AnalysisResult {
	return AnalysisResult{
		Verdict:           VerdictUnverifiable,
		Confidence:        50,
		Claims:            []Claim{},
		RedFlags:          []RedFlag{},
		Explanation:       strings.TrimSpace(raw),
		Recommendations:   "Manual verification recommended",
		SearchSuggestions: []string{},
	}
}

// normalizeAnalysis repairs a structurally valid but sloppy result so
// downstream stages never see partial fields.
func normalizeAnalysis(r *AnalysisResult) {
	switch r.Verdict {
	case VerdictTrue, VerdictLikelyFake, VerdictMisleading, VerdictUnverifiable:
	default:
		r.Verdict = VerdictUnverifiable
	}
	r.Confidence = clampConfidence(r.Confidence)
	if r.Claims == nil {
		r.Claims = []Claim{}
	}
	if r.RedFlags == nil {
		r.RedFlags = []RedFlag{}
	}
	if r.SearchSuggestions == nil {
		r.SearchSuggestions = []string{}
	}
	if r.Recommendations == "" {
		r.Recommendations = "Manual verification recommended"
	}
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
