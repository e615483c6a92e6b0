package db

import (
	"context"
	"fmt"
	"strings"
)

// leadBatchSize caps how many leads go into a single bulk insert statement.
const leadBatchSize = 25

func statusOrNew(status string) string {
	if status == "" {
		return LeadStatusNew
	}
	return status
}

func sourceOrDefault(source string) string {
	if source == "" {
		return LeadSourceGoogleSERP
	}
	return source
}

// chunkLeads splits leads into batches of at most leadBatchSize.
func chunkLeads(leads []Lead) [][]Lead {
	if len(leads) == 0 {
		return nil
	}

	var chunks [][]Lead
	for start := 0; start < len(leads); start += leadBatchSize {
		end := start + leadBatchSize
		if end > len(leads) {
			end = len(leads)
		}
		chunks = append(chunks, leads[start:end])
	}
	return chunks
}

// SaveLeads bulk-inserts leads in batches. Existing leads are updated in
// place, so reprocessing a run is safe.
func (db *DB) SaveLeads(ctx context.Context, leads []Lead) error {
	for _, chunk := range chunkLeads(leads) {
		var sb strings.Builder
		sb.WriteString(`INSERT INTO leads (id, run_id, company, domain, description, website_text, summary, email_draft, status, source) VALUES `)

		args := make([]any, 0, len(chunk)*10)
		for i, lead := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 10
			sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
			args = append(args, lead.ID, lead.RunID, lead.Company, lead.Domain,
				lead.Description, lead.WebsiteText, lead.Summary, lead.EmailDraft,
				statusOrNew(lead.Status), sourceOrDefault(lead.Source))
		}

		sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			domain = EXCLUDED.domain,
			description = EXCLUDED.description,
			website_text = EXCLUDED.website_text,
			summary = EXCLUDED.summary,
			email_draft = EXCLUDED.email_draft`)

		if _, err := db.pool.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to save leads batch: %w", err)
		}
	}
	return nil
}

// SaveLead upserts a single lead. Used to persist enrichment results as soon
// as each lead finishes, so a later failure cannot lose earlier work.
func (db *DB) SaveLead(ctx context.Context, lead Lead) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO leads (id, run_id, company, domain, description, website_text, summary, email_draft, status, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			domain = EXCLUDED.domain,
			description = EXCLUDED.description,
			website_text = EXCLUDED.website_text,
			summary = EXCLUDED.summary,
			email_draft = EXCLUDED.email_draft`,
		lead.ID, lead.RunID, lead.Company, lead.Domain,
		lead.Description, lead.WebsiteText, lead.Summary, lead.EmailDraft,
		statusOrNew(lead.Status), sourceOrDefault(lead.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to save lead %s: %w", lead.ID, err)
	}
	return nil
}

// ListLeadsByRun retrieves all leads for a run in insertion order.
func (db *DB) ListLeadsByRun(ctx context.Context, runID string) ([]Lead, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, company, domain, description, website_text, summary, email_draft, status, source, created_at
		 FROM leads WHERE run_id = $1 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var lead Lead
		var domain, description, websiteText, summary, emailDraft *string
		if err := rows.Scan(&lead.ID, &lead.RunID, &lead.Company, &domain,
			&description, &websiteText, &summary, &emailDraft,
			&lead.Status, &lead.Source, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if domain != nil {
			lead.Domain = *domain
		}
		if description != nil {
			lead.Description = *description
		}
		if websiteText != nil {
			lead.WebsiteText = *websiteText
		}
		if summary != nil {
			lead.Summary = *summary
		}
		if emailDraft != nil {
			lead.EmailDraft = *emailDraft
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
