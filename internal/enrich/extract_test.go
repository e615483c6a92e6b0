package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnrichment(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOK     bool
		wantResult Enrichment
	}{
		{
			name:       "plain JSON",
			input:      `{"summary": "Builds rockets.", "email_draft": "Hi there."}`,
			wantOK:     true,
			wantResult: Enrichment{Summary: "Builds rockets.", EmailDraft: "Hi there."},
		},
		{
			name:       "fenced JSON",
			input:      "```json\n{\"summary\": \"S\", \"email_draft\": \"E\"}\n```",
			wantOK:     true,
			wantResult: Enrichment{Summary: "S", EmailDraft: "E"},
		},
		{
			name:       "prose around the object",
			input:      "Sure! Here is the result:\n{\"summary\": \"S\", \"email_draft\": \"E\"}\nLet me know if you need anything else.",
			wantOK:     true,
			wantResult: Enrichment{Summary: "S", EmailDraft: "E"},
		},
		{
			name:       "braces inside string values",
			input:      `{"summary": "Uses {placeholders} heavily.", "email_draft": "Hi {name}!"}`,
			wantOK:     true,
			wantResult: Enrichment{Summary: "Uses {placeholders} heavily.", EmailDraft: "Hi {name}!"},
		},
		{
			name:   "missing email_draft",
			input:  `{"summary": "Only a summary."}`,
			wantOK: false,
		},
		{
			name:   "empty summary rejected",
			input:  `{"summary": "", "email_draft": "E"}`,
			wantOK: false,
		},
		{
			name:   "wrong types",
			input:  `{"summary": 1, "email_draft": 2}`,
			wantOK: false,
		},
		{
			name:   "not JSON at all",
			input:  "I cannot produce JSON for this request.",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "truncated object",
			input:  `{"summary": "S", "email_draft": "cut off`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeEnrichment(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantResult, got)
			}
		})
	}
}

func TestDecodeEnrichment_ExtraFieldsAllowed(t *testing.T) {
	got, ok := DecodeEnrichment(`{"summary": "S", "email_draft": "E", "confidence": 0.9}`)
	require.True(t, ok)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, "E", got.EmailDraft)
}
