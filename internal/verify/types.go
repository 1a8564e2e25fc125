package verify

import (
	"time"

	"github.com/mohammad-safakhou/verity/internal/search"
)

// Verdict is the overall judgment on a piece of content.
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictLikelyFake   Verdict = "likely_fake"
	VerdictMisleading   Verdict = "misleading"
	VerdictUnverifiable Verdict = "unverifiable"

	// Degradation markers the cross-reference stage can emit in place
	// of a judgment. They never survive into the final merged verdict.
	VerdictInsufficientData Verdict = "insufficient_data"
	VerdictAnalysisError    Verdict = "analysis_error"
)

// ClaimCategory classifies an extracted claim.
type ClaimCategory string

const (
	CategoryHistorical    ClaimCategory = "historical"
	CategoryScientific    ClaimCategory = "scientific"
	CategoryCurrentEvents ClaimCategory = "current_events"
	CategoryStatistics    ClaimCategory = "statistics"
	CategoryOther         ClaimCategory = "other"
)

// Claim is a single verifiable factual statement extracted from the
// submitted content.
type Claim struct {
	Text          string        `json:"text"`
	Category      ClaimCategory `json:"category"`
	TimeSensitive bool          `json:"time_sensitive"`
	Verifiable    bool          `json:"verifiable"`
}

// RedFlag is a manipulation or credibility warning spotted during
// analysis.
type RedFlag struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// AnalysisResult is the claim-extraction stage's output. It is always
// fully populated: on malformed model output the analyzer substitutes
// a deterministic fallback instead of partial fields.
type AnalysisResult struct {
	Verdict           Verdict   `json:"verdict"`
	Confidence        int       `json:"confidence"`
	Claims            []Claim   `json:"claims"`
	RedFlags          []RedFlag `json:"red_flags"`
	Explanation       string    `json:"explanation"`
	Recommendations   string    `json:"recommendations"`
	ContextAnalysis   string    `json:"context_analysis"`
	SearchSuggestions []string  `json:"search_suggestions"`
}

// ClaimStatus is the per-claim outcome of cross-referencing.
type ClaimStatus string

const (
	StatusVerifiedTrue  ClaimStatus = "verified_true"
	StatusVerifiedFalse ClaimStatus = "verified_false"
	StatusPartiallyTrue ClaimStatus = "partially_true"
	StatusContradicted  ClaimStatus = "contradicted"
	StatusNoEvidence    ClaimStatus = "no_evidence"
)

// VerificationResult records how one claim fared against the gathered
// sources.
type VerificationResult struct {
	Claim                string          `json:"claim"`
	Status               ClaimStatus     `json:"status"`
	Confidence           int             `json:"confidence"`
	SupportingSources    []search.Source `json:"supporting_sources"`
	ContradictingSources []search.Source `json:"contradicting_sources"`
	Explanation          string          `json:"explanation"`
}

// Consensus measures how strongly the sources agree with each other.
type Consensus string

const (
	ConsensusStrong   Consensus = "strong"
	ConsensusModerate Consensus = "moderate"
	ConsensusWeak     Consensus = "weak"
	ConsensusNone     Consensus = "none"
)

// SourceQuality summarizes the evidence pool behind a cross-reference
// run.
type SourceQuality struct {
	TotalSources           int       `json:"total_sources"`
	HighCredibilitySources int       `json:"high_credibility_sources"`
	RecentSources          int       `json:"recent_sources"`
	ConsensusLevel         Consensus `json:"consensus_level"`
}

// OverallAssessment is the cross-reference stage's aggregate judgment.
type OverallAssessment struct {
	Verdict    Verdict `json:"verdict"`
	Confidence int     `json:"confidence"`
	Summary    string  `json:"summary,omitempty"`
}

// CrossRefResult bundles everything the cross-reference stage produces.
type CrossRefResult struct {
	VerificationResults []VerificationResult `json:"verification_results"`
	OverallAssessment   OverallAssessment    `json:"overall_assessment"`
	SourceQuality       SourceQuality        `json:"source_quality"`
}

// Degraded reports whether the cross-reference stage emitted a marker
// instead of a judgment, meaning the final merge must fall back to the
// analysis verdict and confidence.
func (a OverallAssessment) Degraded() bool {
	return a.Verdict == "" || a.Verdict == VerdictInsufficientData || a.Verdict == VerdictAnalysisError
}

// Request is one piece of content submitted for verification. Image is
// set for vision input; Content carries the text otherwise.
type Request struct {
	Content string
	Image   *ImageInput
}

// ImageInput mirrors the pre-normalized image shape the ingestion
// boundary hands over.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// Metadata is attached to every successful response.
type Metadata struct {
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
	APIsUsed         []string  `json:"apis_used"`
	SearchErrors     []string  `json:"search_errors"`
}

// Response is the final assembled verification outcome.
type Response struct {
	Success            bool            `json:"success"`
	Verdict            Verdict         `json:"verdict"`
	Confidence         int             `json:"confidence"`
	Explanation        string          `json:"explanation"`
	InitialAnalysis    AnalysisResult  `json:"initial_analysis"`
	SourceVerification CrossRefResult  `json:"source_verification"`
	Sources            []search.Source `json:"sources"`
	Recommendations    string          `json:"recommendations"`
	Metadata           Metadata        `json:"metadata"`
}
