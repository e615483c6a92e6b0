// Package scrape captures website text for lead enrichment. Capture is best
// effort: any failure yields empty text and the pipeline moves on.
package scrape

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/outpost/internal/fetch"
)

// MaxTextLength caps captured website text so prompts stay within model
// context limits.
const MaxTextLength = 10000

// DefaultTimeout bounds each capture attempt.
const DefaultTimeout = 15 * time.Second

// Capturer fetches a lead's website and extracts readable text.
type Capturer struct {
	// UseBrowser enables headless rendering when plain HTTP fetch yields
	// too little text. Requires Chrome on the host.
	UseBrowser bool
	Timeout    time.Duration
	Verbose    bool
}

// NewCapturer creates a capturer with default timeout.
func NewCapturer(useBrowser, verbose bool) *Capturer {
	return &Capturer{
		UseBrowser: useBrowser,
		Timeout:    DefaultTimeout,
		Verbose:    verbose,
	}
}

// CaptureText fetches link and returns readable page text, truncated to
// MaxTextLength runes. Returns empty string on any failure.
func (c *Capturer) CaptureText(ctx context.Context, link string) string {
	target, err := normalizeURL(link)
	if err != nil {
		if c.Verbose {
			log.Printf("[SCRAPE] Skipping %s: %v", link, err)
		}
		return ""
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fetch.URL(fetchCtx, target, &fetch.Options{
		Timeout:   timeout,
		UserAgent: fetch.DefaultUserAgent,
	})
	if err != nil {
		if c.Verbose {
			log.Printf("[SCRAPE] Fetch failed for %s: %v", target, err)
		}
		return ""
	}

	text, err := fetch.ExtractMainText(result.HTML, fetch.CompanyPageSelectors())
	if err != nil {
		return ""
	}

	if c.UseBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.WithBrowser(ctx, target, timeout, c.Verbose)
		if err == nil {
			if rendered, err := fetch.ExtractMainText(html, fetch.CompanyPageSelectors()); err == nil && len(rendered) > len(text) {
				text = rendered
			}
		}
	}

	return Truncate(text, MaxTextLength)
}

// Truncate caps text at max runes without splitting a multibyte character.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// normalizeURL ensures the link has a scheme and does not point at internal
// infrastructure. Search results occasionally carry bare domains or, worse,
// links into private address space.
func normalizeURL(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("empty link")
	}

	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = "https://" + link
	}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("unparseable link %q", link)
	}

	if isBlockedHost(parsed.Hostname()) {
		return "", fmt.Errorf("blocked host %s", parsed.Hostname())
	}

	return link, nil
}

// isBlockedHost rejects loopback, link-local, and private addresses along
// with the cloud metadata endpoint.
func isBlockedHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}
	if lower == "169.254.169.254" || lower == "metadata.google.internal" {
		return true
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate() || ip.IsUnspecified()
	}
	return false
}
