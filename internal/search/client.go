// Package search queries SerpAPI for organic Google results. The raw provider
// response is preserved so callers can archive it before any shape checks.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL     = "https://serpapi.com/search.json"
	defaultResultCount = 10
	defaultTimeout     = 30 * time.Second
)

// ProviderError indicates the search provider returned a non-success status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider returned status %d: %s", e.StatusCode, e.Body)
}

// InvalidResponseError indicates the provider responded 200 but the payload
// did not have the expected shape.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid search response: %s", e.Reason)
}

// Result is one organic search result.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Response holds the provider's raw payload. Results parses it on demand, so
// archiving can happen before shape validation.
type Response struct {
	Raw []byte
}

// Results parses the organic results out of the raw payload.
func (r *Response) Results() ([]Result, error) {
	var envelope struct {
		OrganicResults *[]Result `json:"organic_results"`
	}
	if err := json.Unmarshal(r.Raw, &envelope); err != nil {
		return nil, &InvalidResponseError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if envelope.OrganicResults == nil {
		return nil, &InvalidResponseError{Reason: "missing organic_results field"}
	}
	return *envelope.OrganicResults, nil
}

// Client queries SerpAPI over HTTP.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	ResultCount int
}

// NewClient creates a search client with default endpoint and timeouts.
func NewClient() *Client {
	return &Client{
		BaseURL:     defaultBaseURL,
		HTTPClient:  &http.Client{Timeout: defaultTimeout},
		ResultCount: defaultResultCount,
	}
}

// Search runs a Google organic search for query. The API key is passed per
// call because it is resolved per run, not at construction time.
func (c *Client) Search(ctx context.Context, query, apiKey string) (*Response, error) {
	count := c.ResultCount
	if count <= 0 {
		count = defaultResultCount
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))
	params.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	return &Response{Raw: body}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
