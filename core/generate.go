package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReverseResult is the declared shape of the reverse (English → Japanese)
// generation output.
type ReverseResult struct {
	Translation string         `json:"translation"`
	Glossary    []GlossaryItem `json:"glossary"`
}

// GlossaryItem is one vocabulary entry in a reverse result.
type GlossaryItem struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
	Note    string `json:"note,omitempty"`
}

// UpgradeResult is the declared shape of the accept/upgrade lesson output.
type UpgradeResult struct {
	Alternative string `json:"alternative"`
	Rationale   string `json:"rationale"`
}

// ParseError reports structured backend output that did not match the
// declared shape. Raw carries the backend text so callers can fall back to
// it instead of failing the turn.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse structured output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeStructured strips wrapping artifacts from raw and unmarshals the
// remainder into v. A mismatch is returned as *ParseError, never as a hard
// backend fault.
func DecodeStructured(raw string, v any) error {
	if err := json.Unmarshal([]byte(StripFences(raw)), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}

// StripFences removes a markdown code fence wrapped around structured output.
// Some backends fence JSON even when asked not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && len(strings.TrimSpace(s[:i])) <= 8 {
		// drop a language tag like "json" on the opening fence line
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
