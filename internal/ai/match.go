package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MatchResult is the validated outcome of a match analysis
type MatchResult struct {
	MatchPercentage float64 `json:"match_percentage"`
	Reasoning       string  `json:"reasoning"`
}

// Analyzer scores a job posting against a resume
type Analyzer struct {
	completer Completer
}

func NewAnalyzer(c Completer) *Analyzer {
	return &Analyzer{completer: c}
}

// AnalyzeMatch asks the model for a match percentage and reasoning. Callers are
// expected to have checked that both texts are non-empty.
func (a *Analyzer) AnalyzeMatch(ctx context.Context, jobPosting, resume string) (*MatchResult, error) {
	content, err := a.completer.Complete(ctx, OpAnalyze, buildMatchPrompt(jobPosting, resume))
	if err != nil {
		return nil, err
	}
	return parseMatch(content)
}

func parseMatch(content string) (*MatchResult, error) {
	fields, err := decodeObject(content)
	if err != nil {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: err}
	}

	rawPct, ok := lookup(fields, "match_percentage", "matchPercentage")
	if !ok {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: errors.New("missing match_percentage")}
	}
	pct, err := coerceFloat(rawPct)
	if err != nil {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: fmt.Errorf("match_percentage: %w", err)}
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 || pct > 100 {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: fmt.Errorf("match_percentage %v out of range 0-100", pct)}
	}

	rawReason, ok := lookup(fields, "reasoning")
	if !ok {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: errors.New("missing reasoning")}
	}
	var reasoning string
	if err := json.Unmarshal(rawReason, &reasoning); err != nil {
		return nil, &ParseError{Op: OpAnalyze, Raw: content, Err: fmt.Errorf("reasoning: %w", err)}
	}

	return &MatchResult{MatchPercentage: pct, Reasoning: reasoning}, nil
}

// decodeObject strips fences, sanitizes and decodes a JSON object
func decodeObject(content string) (map[string]json.RawMessage, error) {
	cleaned := Sanitize(stripFences(content))
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return fields, nil
}

// present returns the first of keys found in fields, null values included
func present(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func lookup(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// coerceFloat accepts JSON numbers (integer or not) and numeric strings such as "75" or "75%"
func coerceFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}
