package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/khrees2412/prospector/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a Client at an httptest server running handler
func newTestClient(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "test/model",
		Timeout: timeout,
	}, srv.Client(), nil)
}

// completionHandler replies with a chat completion whose message content is content
func completionHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		completionHandler(`{"ok": true}`)(w, r)
	})

	content, err := client.Complete(context.Background(), OpAnalyze, "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, content)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestCompleteNon2xxIsTransportError(t *testing.T) {
	client := newTestClient(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), OpAnalyze, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.Status)
	assert.Contains(t, te.Body, "rate limited")
}

func TestCompleteTimeoutIsTransportError(t *testing.T) {
	client := newTestClient(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	_, err := client.Complete(context.Background(), OpExtract, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompleteWithoutChoicesIsParseError(t *testing.T) {
	client := newTestClient(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), OpExtract, "hello")
	assert.ErrorIs(t, err, ErrExtractionParse)
	assert.NotErrorIs(t, err, ErrAnalysisParse)
}

func TestAnalyzeMatch(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantPct   float64
		wantRsn   string
		wantParse bool
	}{
		{
			name:    "integer percentage",
			content: `{"match_percentage": 75, "reasoning": "Strong backend overlap."}`,
			wantPct: 75.0,
			wantRsn: "Strong backend overlap.",
		},
		{
			name:    "raw newline in reasoning",
			content: "{\"match_percentage\": 62.5, \"reasoning\": \"Strengths:\nGo\n\nGaps:\nRust\"}",
			wantPct: 62.5,
			wantRsn: "Strengths:\nGo\n\nGaps:\nRust",
		},
		{
			name:    "numeric string",
			content: `{"match_percentage": "80%", "reasoning": "ok"}`,
			wantPct: 80,
			wantRsn: "ok",
		},
		{
			name:    "fenced",
			content: "```json\n{\"match_percentage\": 10, \"reasoning\": \"weak\"}\n```",
			wantPct: 10,
			wantRsn: "weak",
		},
		{name: "missing percentage", content: `{"reasoning": "no score"}`, wantParse: true},
		{name: "non-numeric percentage", content: `{"match_percentage": "high", "reasoning": "x"}`, wantParse: true},
		{name: "missing reasoning", content: `{"match_percentage": 50}`, wantParse: true},
		{name: "out of range", content: `{"match_percentage": 140, "reasoning": "x"}`, wantParse: true},
		{name: "NaN string", content: `{"match_percentage": "NaN", "reasoning": "x"}`, wantParse: true},
		{name: "infinite string", content: `{"match_percentage": "+Inf", "reasoning": "x"}`, wantParse: true},
		{name: "truncated", content: `{"match_percentage": 50, "reasoning": "cut`, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, time.Second, completionHandler(tt.content))
			result, err := NewAnalyzer(client).AnalyzeMatch(context.Background(), "posting", "resume")
			if tt.wantParse {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAnalysisParse)
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.content, pe.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPct, result.MatchPercentage)
			assert.Equal(t, tt.wantRsn, result.Reasoning)
		})
	}
}

func TestAnalyzeMatchPromptCarriesInputs(t *testing.T) {
	var prompt string
	client := newTestClient(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[0].Content
		completionHandler(`{"match_percentage": 1, "reasoning": "x"}`)(w, r)
	})

	_, err := NewAnalyzer(client).AnalyzeMatch(context.Background(), "Senior Go Engineer at Acme", "Ten years of Go")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Senior Go Engineer at Acme")
	assert.Contains(t, prompt, "Ten years of Go")
	assert.Contains(t, prompt, "match_percentage")
}

func TestExtractFields(t *testing.T) {
	content := "{\"company_name\": \"Acme\", \"role_name\": \"Unknown\", " +
		"\"extracted_content\": \"About us\nWe build rockets\", " +
		"\"additional_info\": {\"location\": \"Berlin\", \"key_requirements\": [\"Go\", \"SQL\"]}}"
	client := newTestClient(t, time.Second, completionHandler(content))

	fields, err := NewExtractor(client).ExtractFields(context.Background(), "posting")
	require.NoError(t, err)
	assert.Equal(t, "Acme", fields.CompanyName)
	assert.Equal(t, Unknown, fields.RoleName)
	assert.Equal(t, "About us\nWe build rockets", fields.ExtractedContent)
	assert.Equal(t, "Berlin", fields.AdditionalInfo["location"])
	assert.Equal(t, []any{"Go", "SQL"}, fields.AdditionalInfo["key_requirements"])
}

func TestExtractFieldsStructuredContent(t *testing.T) {
	content := `{"company_name": null, "role_name": "Engineer", "extracted_content": {"summary": "Build APIs"}}`
	client := newTestClient(t, time.Second, completionHandler(content))

	fields, err := NewExtractor(client).ExtractFields(context.Background(), "posting")
	require.NoError(t, err)
	assert.Equal(t, Unknown, fields.CompanyName)
	assert.Equal(t, "Engineer", fields.RoleName)
	assert.Equal(t, "{\n  \"summary\": \"Build APIs\"\n}", fields.ExtractedContent)
	assert.Nil(t, fields.AdditionalInfo)
}

func TestExtractFieldsCamelCaseKeys(t *testing.T) {
	content := `{"companyName": "Acme", "roleName": "Dev", "extractedContent": "Build things", "additionalInfo": {"location": "Remote"}}`
	client := newTestClient(t, time.Second, completionHandler(content))

	fields, err := NewExtractor(client).ExtractFields(context.Background(), "posting")
	require.NoError(t, err)
	assert.Equal(t, "Acme", fields.CompanyName)
	assert.Equal(t, "Dev", fields.RoleName)
	assert.Equal(t, "Build things", fields.ExtractedContent)
	assert.Equal(t, "Remote", fields.AdditionalInfo["location"])
}

func TestExtractFieldsParseErrors(t *testing.T) {
	for name, content := range map[string]string{
		"not json":        "I could not find anything",
		"missing company": `{"role_name": "Engineer"}`,
		"wrong type":      `{"company_name": 42, "role_name": "Engineer"}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, time.Second, completionHandler(content))
			_, err := NewExtractor(client).ExtractFields(context.Background(), "posting")
			assert.ErrorIs(t, err, ErrExtractionParse)
			assert.NotErrorIs(t, err, ErrTransport)
		})
	}
}
