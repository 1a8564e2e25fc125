package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/verity/internal/llm"
)

type fakeProvider struct {
	reply      string
	err        error
	calls      int
	imageCalls int
	lastPrompt string
}

func (f *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeProvider) GenerateWithImage(_ context.Context, prompt string, _ llm.ImageInput) (string, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

func TestAnalyzeParsesStructuredReply(t *testing.T) {
	provider := &fakeProvider{reply: "Here is my analysis:\n```json\n" + `{
		"verdict": "true",
		"confidence": 85,
		"claims": [{"text": "The Eiffel Tower is 330 meters tall.", "category": "historical", "time_sensitive": false, "verifiable": true}],
		"red_flags": [],
		"explanation": "Well documented fact.",
		"recommendations": "None needed",
		"search_suggestions": ["eiffel tower height"]
	}` + "\n```"}
	a := NewAnalyzer(provider, time.Second)

	result, err := a.Analyze(context.Background(), Request{Content: "The Eiffel Tower is 330 meters tall."})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Verdict != VerdictTrue || result.Confidence != 85 {
		t.Fatalf("unexpected verdict %s (%d)", result.Verdict, result.Confidence)
	}
	if len(result.Claims) != 1 || !result.Claims[0].Verifiable {
		t.Fatalf("unexpected claims: %+v", result.Claims)
	}
	if len(result.SearchSuggestions) != 1 {
		t.Fatalf("expected search suggestion carried through, got %v", result.SearchSuggestions)
	}
}

func TestAnalyzeMalformedReplyFallsBack(t *testing.T) {
	provider := &fakeProvider{reply: "I cannot produce JSON today, sorry."}
	a := NewAnalyzer(provider, time.Second)

	result, err := a.Analyze(context.Background(), Request{Content: "some claim"})
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if result.Verdict != VerdictUnverifiable {
		t.Fatalf("expected unverifiable, got %s", result.Verdict)
	}
	if result.Confidence != 50 {
		t.Fatalf("expected confidence 50, got %d", result.Confidence)
	}
	if result.Recommendations != "Manual verification recommended" {
		t.Fatalf("unexpected recommendations %q", result.Recommendations)
	}
	if !strings.Contains(result.Explanation, "cannot produce JSON") {
		t.Fatalf("raw reply must survive in explanation, got %q", result.Explanation)
	}
	if result.Claims == nil || result.RedFlags == nil {
		t.Fatal("fallback must populate empty slices, not nil")
	}
}

func TestAnalyzeProviderErrorIsFatal(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	a := NewAnalyzer(provider, time.Second)

	if _, err := a.Analyze(context.Background(), Request{Content: "x"}); err == nil {
		t.Fatal("expected error when the model is unreachable")
	}
}

func TestAnalyzeNormalizesSloppyReply(t *testing.T) {
	provider := &fakeProvider{reply: `{"verdict": "definitely-real", "confidence": 250}`}
	a := NewAnalyzer(provider, time.Second)

	result, err := a.Analyze(context.Background(), Request{Content: "x"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Verdict != VerdictUnverifiable {
		t.Fatalf("unknown verdict must normalize to unverifiable, got %s", result.Verdict)
	}
	if result.Confidence != 100 {
		t.Fatalf("confidence must clamp to 100, got %d", result.Confidence)
	}
	if result.Claims == nil || result.RedFlags == nil || result.SearchSuggestions == nil {
		t.Fatal("missing slices must normalize to empty, not nil")
	}
}

func TestAnalyzeImageUsesVisionPath(t *testing.T) {
	provider := &fakeProvider{reply: `{"verdict": "unverifiable", "confidence": 40}`}
	a := NewAnalyzer(provider, time.Second)

	_, err := a.Analyze(context.Background(), Request{
		Image: &ImageInput{MIMEType: "image/png", Data: []byte{0x89, 0x50}},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if provider.imageCalls != 1 || provider.calls != 0 {
		t.Fatalf("expected vision call only, got text=%d image=%d", provider.calls, provider.imageCalls)
	}
}
