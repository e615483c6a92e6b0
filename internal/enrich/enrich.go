// Package enrich turns lead candidates into personalized outreach drafts
// using an LLM.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/outpost/internal/llm"
	"github.com/jonathan/outpost/internal/prompts"
)

// Input carries the lead fields the prompt is built from.
type Input struct {
	Company     string
	Description string
	Domain      string
	WebsiteText string
}

// Engine drives per-lead enrichment against an LLM client.
type Engine struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewEngine creates an enrichment engine backed by a Gemini client.
func NewEngine(ctx context.Context, apiKey string) (*Engine, error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment client: %w", err)
	}
	return &Engine{client: client, tier: llm.TierLite}, nil
}

// NewEngineWithClient creates an engine over an existing client. Used in
// tests and when callers manage client lifetime themselves.
func NewEngineWithClient(client llm.Client, tier llm.ModelTier) *Engine {
	return &Engine{client: client, tier: tier}
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Enrich generates a summary and email draft for one lead. The boolean is
// false when the model output could not be decoded into a valid enrichment;
// the error covers transport-level failures only.
func (e *Engine) Enrich(ctx context.Context, input Input) (Enrichment, bool, error) {
	prompt, err := buildPrompt(input)
	if err != nil {
		return Enrichment{}, false, err
	}

	text, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return Enrichment{}, false, fmt.Errorf("enrichment generation failed: %w", err)
	}

	enrichment, ok := DecodeEnrichment(text)
	return enrichment, ok, nil
}

// buildPrompt fills the lead email template. Field values are JSON-quoted so
// page text containing quotes or newlines cannot break out of the data block.
func buildPrompt(input Input) (string, error) {
	template, err := prompts.Get("enrichment.json", "lead_email")
	if err != nil {
		return "", fmt.Errorf("failed to load enrichment prompt: %w", err)
	}

	return prompts.Format(template, map[string]string{
		"Company":     jsonQuote(input.Company),
		"Context":     jsonQuote(input.Description),
		"Domain":      jsonQuote(input.Domain),
		"WebsiteText": jsonQuote(input.WebsiteText),
	}), nil
}

func jsonQuote(s string) string {
	quoted, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(quoted)
}
