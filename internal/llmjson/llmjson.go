// Package llmjson decodes the structured payload a language model is
// instructed to embed in its free-form reply. Models wrap JSON in code
// fences, prepend prose, or trail explanations; this package tolerates
// all of that and reports a typed ParseError carrying the raw text when
// no well-formed payload can be found.
package llmjson

import (
	"encoding/json"
	"strings"
)

// ParseError indicates that no valid JSON payload could be extracted
// from a model reply. Raw holds the full reply so callers can surface
// it in their fallback output.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "llmjson: no valid payload: " + e.Err.Error()
	}
	return "llmjson: no valid payload"
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode finds the first balanced JSON object or array in raw and
// unmarshals it into v. On failure it returns a *ParseError; it never
// returns any other error type.
func Decode(raw string, v any) error {
	payload, ok := Extract(raw)
	if !ok {
		return &ParseError{Raw: raw}
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}

// Extract returns the first balanced JSON object or array embedded in s.
// Markdown code fences are unwrapped first, then the text is scanned for
// a balanced {...} or [...] ignoring braces inside string literals.
func Extract(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))

	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}

	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			if out, ok := balancedFrom(s, i); ok {
				return out, true
			}
		}
	}
	return "", false
}

// stripCodeFence removes the first fenced code block if s starts with
// ``` or ~~~, accepting an optional language tag.
func stripCodeFence(s string) (string, bool) {
	trim := strings.TrimLeft(s, "\n\r\t ")
	fence := ""
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := trim[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]
	if end := strings.Index(rest, fence); end != -1 {
		return rest[:end], true
	}
	return "", false
}

// balancedFrom extracts a balanced JSON value starting at startIdx,
// handling string literals and escape sequences.
func balancedFrom(s string, startIdx int) (string, bool) {
	open := s[startIdx]
	if open != '{' && open != '[' {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escape   bool
	)
	stack = append(stack, open)

	for i := startIdx + 1; i < len(s); i++ {
		c := s[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			top := stack[len(stack)-1]
			if (top == '{' && c != '}') || (top == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[startIdx : i+1], true
			}
		}
	}
	return "", false
}
