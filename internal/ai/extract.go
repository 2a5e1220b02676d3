package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Unknown is what the model reports for fields it could not find
const Unknown = "Unknown"

// ExtractedFields holds structured fields pulled out of a job posting
type ExtractedFields struct {
	CompanyName      string         `json:"company_name"`
	RoleName         string         `json:"role_name"`
	ExtractedContent string         `json:"extracted_content"`
	AdditionalInfo   map[string]any `json:"additional_info,omitempty"`
}

// Extractor pulls company, role and other details out of free text
type Extractor struct {
	completer Completer
}

func NewExtractor(c Completer) *Extractor {
	return &Extractor{completer: c}
}

func (e *Extractor) ExtractFields(ctx context.Context, jobPosting string) (*ExtractedFields, error) {
	content, err := e.completer.Complete(ctx, OpExtract, buildExtractPrompt(jobPosting))
	if err != nil {
		return nil, err
	}
	return parseExtraction(content)
}

func parseExtraction(content string) (*ExtractedFields, error) {
	fields, err := decodeObject(content)
	if err != nil {
		return nil, &ParseError{Op: OpExtract, Raw: content, Err: err}
	}

	out := &ExtractedFields{}
	for _, f := range []struct {
		key, alias string
		dst        *string
	}{
		{"company_name", "companyName", &out.CompanyName},
		{"role_name", "roleName", &out.RoleName},
	} {
		key := f.key
		raw, ok := present(fields, f.key, f.alias)
		if !ok {
			return nil, &ParseError{Op: OpExtract, Raw: content, Err: fmt.Errorf("missing %s", key)}
		}
		s, err := optionalString(raw)
		if err != nil {
			return nil, &ParseError{Op: OpExtract, Raw: content, Err: fmt.Errorf("%s: %w", key, err)}
		}
		if strings.TrimSpace(s) == "" {
			s = Unknown
		}
		*f.dst = strings.TrimSpace(s)
	}

	if raw, ok := lookup(fields, "extracted_content", "extractedContent"); ok {
		text, err := contentText(raw)
		if err != nil {
			return nil, &ParseError{Op: OpExtract, Raw: content, Err: fmt.Errorf("extracted_content: %w", err)}
		}
		out.ExtractedContent = text
	}

	if raw, ok := lookup(fields, "additional_info", "additionalInfo"); ok {
		var info map[string]any
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, &ParseError{Op: OpExtract, Raw: content, Err: fmt.Errorf("additional_info: %w", err)}
		}
		out.AdditionalInfo = info
	}

	return out, nil
}

func optionalString(raw json.RawMessage) (string, error) {
	if string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("not a string")
	}
	return s, nil
}

// contentText returns a string as-is and renders objects or arrays as indented JSON
func contentText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}
