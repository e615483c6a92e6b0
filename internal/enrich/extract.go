package enrich

import (
	"encoding/json"

	"github.com/jonathan/outpost/internal/llm"
	"github.com/jonathan/outpost/internal/schemas"
)

// enrichmentSchema validates the decoded model output before it reaches the
// database.
const enrichmentSchema = `{
	"type": "object",
	"required": ["summary", "email_draft"],
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"email_draft": {"type": "string", "minLength": 1}
	}
}`

// Enrichment is the structured output produced per lead.
type Enrichment struct {
	Summary    string `json:"summary"`
	EmailDraft string `json:"email_draft"`
}

// DecodeEnrichment recovers an Enrichment from raw model output. Models wrap
// JSON in fences or prose despite instructions, so decoding is tolerant:
// strip code fences, then scan for the first balanced object, then fall back
// to the whole text. The boolean reports whether a valid enrichment was
// recovered.
func DecodeEnrichment(text string) (Enrichment, bool) {
	cleaned := llm.CleanJSONBlock(text)

	candidates := []string{}
	if obj := llm.ExtractJSONObject(cleaned); obj != "" {
		candidates = append(candidates, obj)
	}
	candidates = append(candidates, cleaned)

	for _, candidate := range candidates {
		var enrichment Enrichment
		if err := json.Unmarshal([]byte(candidate), &enrichment); err != nil {
			continue
		}
		if err := schemas.ValidateJSONString(enrichmentSchema, candidate); err != nil {
			continue
		}
		return enrichment, true
	}

	return Enrichment{}, false
}
