// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/outpost/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRun outputs a human-readable summary of one run.
func (p *Printer) PrintRun(run *db.Run) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Query:   %s\n", run.Query))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", run.Status))
	if run.LeadsCount != nil {
		sb.WriteString(fmt.Sprintf("Leads:   %d\n", *run.LeadsCount))
	}
	if run.Error != nil && *run.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:   %s\n", *run.Error))
	}
	sb.WriteString(fmt.Sprintf("Created: %s", run.CreatedAt.Format("2006-01-02 15:04:05")))

	p.printBox("RUN", sb.String())
}

// PrintRuns outputs a listing of recent runs.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("RUNS", "No runs yet")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total runs: %d\n\n", len(runs)))

	count := min(len(runs), maxItemsToShow)
	for i := 0; i < count; i++ {
		run := runs[i]
		query := run.Query
		if len(query) > 30 {
			query = query[:27] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-9s  %s\n", run.Status, query))
		sb.WriteString(fmt.Sprintf("           %s", run.ID))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(runs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more runs", len(runs)-maxItemsToShow))
	}

	p.printBox("RECENT RUNS", sb.String())
}

// PrintLeads outputs the leads of a run with enrichment indicators.
func (p *Printer) PrintLeads(leads []db.Lead) {
	if len(leads) == 0 {
		p.printBox("LEADS", "No leads")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total leads: %d\n\n", len(leads)))

	count := min(len(leads), maxItemsToShow)
	for i := 0; i < count; i++ {
		lead := leads[i]
		company := lead.Company
		if len(company) > 40 {
			company = company[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", company))
		sb.WriteString(fmt.Sprintf("  %s", lead.Domain))

		checks := []string{}
		if lead.WebsiteText != "" {
			checks = append(checks, "✓site")
		}
		if lead.Summary != "" {
			checks = append(checks, "✓summary")
		}
		if lead.EmailDraft != "" {
			checks = append(checks, "✓email")
		}
		if len(checks) > 0 {
			sb.WriteString(fmt.Sprintf("  [%s]", strings.Join(checks, " ")))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(leads) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more leads", len(leads)-maxItemsToShow))
	}

	p.printBox("LEADS", strings.TrimSuffix(sb.String(), "\n"))
}
