package search

import (
	"net/url"
	"strings"
)

// Domain extracts the hostname from a result link. When the link cannot be
// parsed as a URL with a host, the raw link is returned so downstream always
// has something to show.
func Domain(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Hostname() == "" {
		return link
	}
	return strings.ToLower(parsed.Hostname())
}
