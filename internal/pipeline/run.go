// Package pipeline executes lead generation runs: search, archive, lead
// mapping, enrichment, and terminal status bookkeeping.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/outpost/internal/db"
	"github.com/jonathan/outpost/internal/enrich"
	"github.com/jonathan/outpost/internal/search"
	"github.com/jonathan/outpost/internal/secrets"
)

// Searcher runs the provider query for a run.
type Searcher interface {
	Search(ctx context.Context, query, apiKey string) (*search.Response, error)
}

// Archiver persists raw provider payloads. Failures are logged, never fatal.
type Archiver interface {
	Store(ctx context.Context, runID string, payload []byte) (string, error)
}

// Enricher produces a summary and email draft for one lead.
type Enricher interface {
	Enrich(ctx context.Context, input enrich.Input) (enrich.Enrichment, bool, error)
	Close() error
}

// EnricherFactory builds an Enricher once the AI credential is resolved.
// Construction happens per run because the credential is resolved per run.
type EnricherFactory func(ctx context.Context, apiKey string) (Enricher, error)

// Store is the subset of database operations the pipeline needs.
type Store interface {
	SaveLeads(ctx context.Context, leads []db.Lead) error
	SaveLead(ctx context.Context, lead db.Lead) error
	MarkRunCompleted(ctx context.Context, runID string, leadsCount int) error
	MarkRunFailed(ctx context.Context, runID string, message string) error
}

// SecretResolver resolves named credentials.
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// TextCapturer fetches website text for a lead. Empty string means no text.
type TextCapturer interface {
	CaptureText(ctx context.Context, link string) string
}

// Processor executes runs end to end. Archive and Capture may be nil to
// disable those stages.
type Processor struct {
	Store       Store
	Search      Searcher
	Archive     Archiver
	Secrets     SecretResolver
	NewEnricher EnricherFactory
	Capture     TextCapturer
	Pacer       *enrich.Pacer
	Verbose     bool
}

// ProcessRun executes a single run. The run row must already exist in
// PENDING status. On any fatal error the run is marked FAILED with a
// redacted message; otherwise it completes with the number of lead
// candidates processed.
func (p *Processor) ProcessRun(ctx context.Context, trigger Trigger) error {
	runID := trigger.RunID
	if runID == "" || trigger.Query == "" {
		// Incomplete trigger: no search, no writes, no status transition.
		log.Printf("[RUN %s] Skipping incomplete trigger (missing run id or query)", runID)
		return nil
	}
	log.Printf("[RUN %s] Processing query: %q", runID, trigger.Query)

	var resolved []string

	searchKey, err := p.Secrets.Resolve(ctx, secrets.SerpAPIKey)
	if err != nil {
		return p.fail(ctx, runID, resolved, fmt.Errorf("search credential unavailable: %w", err))
	}
	resolved = append(resolved, searchKey)

	resp, err := p.Search.Search(ctx, trigger.Query, searchKey)
	if err != nil {
		return p.fail(ctx, runID, resolved, fmt.Errorf("search failed: %w", err))
	}

	// Archive the raw payload before any shape checks, so even malformed
	// provider responses are kept for debugging.
	if p.Archive != nil {
		if key, err := p.Archive.Store(ctx, runID, resp.Raw); err != nil {
			log.Printf("[RUN %s] Archive failed (continuing): %v", runID, err)
		} else if p.Verbose {
			log.Printf("[RUN %s] Archived raw payload to %s", runID, key)
		}
	}

	results, err := resp.Results()
	if err != nil {
		return p.fail(ctx, runID, resolved, err)
	}
	log.Printf("[RUN %s] Search returned %d results", runID, len(results))

	leads := mapLeads(runID, results)
	if err := p.Store.SaveLeads(ctx, leads); err != nil {
		return p.fail(ctx, runID, resolved, fmt.Errorf("failed to persist leads: %w", err))
	}

	links := make([]string, len(results))
	for i, result := range results {
		links[i] = result.Link
	}
	p.enrichLeads(ctx, runID, leads, links, &resolved)

	if err := p.Store.MarkRunCompleted(ctx, runID, len(leads)); err != nil {
		return fmt.Errorf("failed to complete run %s: %w", runID, err)
	}
	log.Printf("[RUN %s] Completed with %d leads", runID, len(leads))
	return nil
}

// enrichLeads runs the AI stage over every lead. The stage is skippable as a
// whole (no AI credential, client construction failure) and per lead (bad
// model output, transport errors); neither fails the run. Each lead is
// re-persisted after its attempt regardless of outcome, so captured website
// text survives failed enrichments. links carries the full result URLs for
// capture; the stored domain may have lost the landing-page path.
func (p *Processor) enrichLeads(ctx context.Context, runID string, leads []db.Lead, links []string, resolved *[]string) {
	if len(leads) == 0 || p.NewEnricher == nil {
		return
	}

	aiKey, err := p.Secrets.Resolve(ctx, secrets.GeminiKey)
	if err != nil {
		log.Printf("[RUN %s] AI credential unavailable, skipping enrichment: %v", runID, err)
		return
	}
	*resolved = append(*resolved, aiKey)

	enricher, err := p.NewEnricher(ctx, aiKey)
	if err != nil {
		log.Printf("[RUN %s] Enrichment client unavailable, skipping enrichment: %v", runID, err)
		return
	}
	defer func() { _ = enricher.Close() }()

	for i := range leads {
		lead := &leads[i]

		if err := p.Pacer.Wait(ctx); err != nil {
			log.Printf("[RUN %s] Enrichment interrupted: %v", runID, err)
			return
		}

		if p.Capture != nil {
			target := lead.Domain
			if i < len(links) && links[i] != "" {
				target = links[i]
			}
			lead.WebsiteText = p.Capture.CaptureText(ctx, target)
		}

		result, ok, err := enricher.Enrich(ctx, enrich.Input{
			Company:     lead.Company,
			Description: lead.Description,
			Domain:      lead.Domain,
			WebsiteText: lead.WebsiteText,
		})
		switch {
		case err != nil:
			log.Printf("[RUN %s] Enrichment failed for %s: %v", runID, lead.Company, redact(err.Error(), *resolved))
		case !ok:
			log.Printf("[RUN %s] Enrichment output unusable for %s, keeping bare lead", runID, lead.Company)
		default:
			lead.Summary = result.Summary
			lead.EmailDraft = result.EmailDraft
		}

		// Persist after every attempt, enriched or not, so captured text and
		// any earlier work survive a later crash
		if err := p.Store.SaveLead(ctx, *lead); err != nil {
			log.Printf("[RUN %s] Failed to persist lead %s: %v", runID, lead.ID, err)
		}
	}
}

// fail marks the run FAILED with a redacted message and returns the original
// error. A failure to record the failure is logged, not propagated, so the
// first error stays visible.
func (p *Processor) fail(ctx context.Context, runID string, resolvedSecrets []string, cause error) error {
	message := redact(cause.Error(), resolvedSecrets)
	if err := p.Store.MarkRunFailed(ctx, runID, message); err != nil {
		log.Printf("[RUN %s] Failed to record failure: %v", runID, err)
	}
	log.Printf("[RUN %s] Failed: %s", runID, message)
	return cause
}

// mapLeads converts search results into lead rows. IDs are prefixed with the
// run ID so leads of a run sort and group together.
func mapLeads(runID string, results []search.Result) []db.Lead {
	now := time.Now().UnixMilli()
	leads := make([]db.Lead, len(results))
	for i, result := range results {
		leads[i] = db.Lead{
			ID:          fmt.Sprintf("%s#%d#%d", runID, now, i),
			RunID:       runID,
			Company:     result.Title,
			Domain:      search.Domain(result.Link),
			Description: result.Snippet,
			Status:      db.LeadStatusNew,
			Source:      db.LeadSourceGoogleSERP,
		}
	}
	return leads
}

// redact replaces resolved secret values in a message. Provider errors can
// echo request URLs, which carry the API key as a query parameter.
func redact(message string, secretValues []string) string {
	for _, value := range secretValues {
		if value != "" {
			message = strings.ReplaceAll(message, value, "[REDACTED]")
		}
	}
	return message
}
