package db

import "time"

// Run statuses. A run starts PENDING and makes exactly one transition to a
// terminal status.
const (
	RunStatusPending   = "PENDING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Run represents one execution of the lead generation pipeline.
type Run struct {
	ID         string    `json:"runId"`
	Query      string    `json:"query"`
	Status     string    `json:"status"`
	LeadsCount *int      `json:"leadsCount,omitempty"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Lead lifecycle values. Runs only ever create NEW leads; later stages
// (outreach tooling) own the other states.
const (
	LeadStatusNew = "NEW"

	LeadSourceGoogleSERP = "google-serp"
)

// Lead is one candidate company produced by a run, enriched in place as the
// pipeline progresses.
type Lead struct {
	ID          string    `json:"leadId"`
	RunID       string    `json:"runId"`
	Company     string    `json:"company"`
	Domain      string    `json:"domain,omitempty"`
	Description string    `json:"description,omitempty"`
	WebsiteText string    `json:"websiteText,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	EmailDraft  string    `json:"email_draft,omitempty"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}
