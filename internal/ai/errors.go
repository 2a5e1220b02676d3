package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every *TransportError
	ErrTransport = errors.New("model transport failed")
	// ErrAnalysisParse matches a *ParseError raised while analyzing a match
	ErrAnalysisParse = errors.New("match analysis response could not be parsed")
	// ErrExtractionParse matches a *ParseError raised while extracting fields
	ErrExtractionParse = errors.New("field extraction response could not be parsed")
)

// Operations reported by Client.Complete and ParseError
const (
	OpAnalyze = "analyze"
	OpExtract = "extract"
)

// TransportError reports an unreachable endpoint, a timeout or a non-2xx status
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model endpoint returned status %d: %s", e.Status, truncate(e.Body, 200))
	}
	return fmt.Sprintf("model request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ParseError carries the raw model output that could not be turned into a result
type ParseError struct {
	Op  string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse model response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrAnalysisParse:
		return e.Op == OpAnalyze
	case ErrExtractionParse:
		return e.Op == OpExtract
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
