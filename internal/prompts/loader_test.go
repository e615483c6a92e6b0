package prompts

import (
	"strings"
	"testing"
)

func TestGet_LeadEmail(t *testing.T) {
	prompt, err := Get("enrichment.json", "lead_email")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(prompt, "--- DATA START ---") {
		t.Error("prompt missing data start marker")
	}
	if !strings.Contains(prompt, "{{.WebsiteText}}") {
		t.Error("prompt missing website text placeholder")
	}
}

func TestGet_MissingKey(t *testing.T) {
	_, err := Get("enrichment.json", "nonexistent")
	if err == nil {
		t.Error("expected error for missing key")
	}
}

func TestGet_MissingFile(t *testing.T) {
	_, err := Get("nonexistent.json", "lead_email")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormat(t *testing.T) {
	template := "Company: {{.Company}}, Domain: {{.Domain}}"
	result := Format(template, map[string]string{
		"Company": "Acme",
		"Domain":  "acme.com",
	})
	expected := "Company: Acme, Domain: acme.com"
	if result != expected {
		t.Errorf("Format() = %q, want %q", result, expected)
	}
}

func TestFormat_UnmatchedPlaceholderLeftIntact(t *testing.T) {
	result := Format("{{.Company}} {{.Unused}}", map[string]string{"Company": "Acme"})
	if result != "Acme {{.Unused}}" {
		t.Errorf("Format() = %q", result)
	}
}
