package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outpost/internal/db"
	"github.com/jonathan/outpost/internal/enrich"
	"github.com/jonathan/outpost/internal/search"
)

type fakeStore struct {
	mu            sync.Mutex
	bulkSaved     []db.Lead
	singleSaved   []db.Lead
	completedWith *int
	failedWith    *string
	bulkErr       error
	singleErr     error
}

func (s *fakeStore) SaveLeads(_ context.Context, leads []db.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.bulkSaved = append(s.bulkSaved, leads...)
	return nil
}

func (s *fakeStore) SaveLead(_ context.Context, lead db.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.singleErr != nil {
		return s.singleErr
	}
	s.singleSaved = append(s.singleSaved, lead)
	return nil
}

func (s *fakeStore) MarkRunCompleted(_ context.Context, _ string, leadsCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failedWith != nil {
		return nil
	}
	s.completedWith = &leadsCount
	return nil
}

func (s *fakeStore) MarkRunFailed(_ context.Context, _ string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completedWith != nil {
		return nil
	}
	s.failedWith = &message
	return nil
}

type fakeSearcher struct {
	raw []byte
	err error
}

func (f *fakeSearcher) Search(_ context.Context, _, _ string) (*search.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &search.Response{Raw: f.raw}, nil
}

type fakeArchiver struct {
	stored [][]byte
	err    error
}

func (f *fakeArchiver) Store(_ context.Context, runID string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, payload)
	return "runs/2026/08/28/" + runID + ".json", nil
}

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, name string) (string, error) {
	value, ok := f[name]
	if !ok {
		return "", fmt.Errorf("secret %s is not available from any source", name)
	}
	return value, nil
}

type fakeEnricher struct {
	enrichments map[string]enrich.Enrichment
	errFor      map[string]error
	badFor      map[string]bool
	calls       []string
	closed      bool
}

func (f *fakeEnricher) Enrich(_ context.Context, input enrich.Input) (enrich.Enrichment, bool, error) {
	f.calls = append(f.calls, input.Company)
	if err := f.errFor[input.Company]; err != nil {
		return enrich.Enrichment{}, false, err
	}
	if f.badFor[input.Company] {
		return enrich.Enrichment{}, false, nil
	}
	if result, ok := f.enrichments[input.Company]; ok {
		return result, true, nil
	}
	return enrich.Enrichment{Summary: "s", EmailDraft: "e"}, true, nil
}

func (f *fakeEnricher) Close() error {
	f.closed = true
	return nil
}

const twoResults = `{"organic_results": [
	{"title": "Acme Corp", "link": "https://acme.com/about", "snippet": "Rockets"},
	{"title": "Globex", "link": "https://globex.io", "snippet": "Widgets"}
]}`

func newProcessor(store *fakeStore, searcher *fakeSearcher, archiver *fakeArchiver, secretValues fakeSecrets, enricher *fakeEnricher) *Processor {
	p := &Processor{
		Store:   store,
		Search:  searcher,
		Secrets: secretValues,
	}
	if archiver != nil {
		p.Archive = archiver
	}
	if enricher != nil {
		p.NewEnricher = func(_ context.Context, _ string) (Enricher, error) {
			return enricher, nil
		}
	}
	return p
}

func TestProcessRun_HappyPath(t *testing.T) {
	store := &fakeStore{}
	archiver := &fakeArchiver{}
	enricher := &fakeEnricher{enrichments: map[string]enrich.Enrichment{
		"Acme Corp": {Summary: "Builds rockets.", EmailDraft: "Hi Acme!"},
		"Globex":    {Summary: "Makes widgets.", EmailDraft: "Hi Globex!"},
	}}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, archiver,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-1", Query: "saas"})
	require.NoError(t, err)

	// Raw payload archived verbatim
	require.Len(t, archiver.stored, 1)
	assert.Equal(t, []byte(twoResults), archiver.stored[0])

	// Both leads bulk-saved with mapped fields
	require.Len(t, store.bulkSaved, 2)
	assert.Equal(t, "Acme Corp", store.bulkSaved[0].Company)
	assert.Equal(t, "acme.com", store.bulkSaved[0].Domain)
	assert.Equal(t, "Rockets", store.bulkSaved[0].Description)
	assert.Equal(t, "run-1", store.bulkSaved[0].RunID)

	// Enrichment persisted per lead
	require.Len(t, store.singleSaved, 2)
	assert.Equal(t, "Builds rockets.", store.singleSaved[0].Summary)
	assert.Equal(t, "Hi Acme!", store.singleSaved[0].EmailDraft)
	assert.True(t, enricher.closed)

	// Terminal status carries candidate count
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 2, *store.completedWith)
	assert.Nil(t, store.failedWith)
}

func TestProcessRun_SearchFailureRedactsSecret(t *testing.T) {
	store := &fakeStore{}
	searcher := &fakeSearcher{err: &search.ProviderError{
		StatusCode: 401,
		Body:       "bad key sk-super-secret in request",
	}}
	p := newProcessor(store, searcher, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk-super-secret"}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-2", Query: "q"})
	require.Error(t, err)

	require.NotNil(t, store.failedWith)
	assert.NotContains(t, *store.failedWith, "sk-super-secret")
	assert.Contains(t, *store.failedWith, "[REDACTED]")
	assert.Nil(t, store.completedWith)
	assert.Empty(t, store.bulkSaved)
}

func TestProcessRun_MissingSearchSecretFailsRun(t *testing.T) {
	store := &fakeStore{}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil, fakeSecrets{}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-3", Query: "q"})
	require.Error(t, err)
	require.NotNil(t, store.failedWith)
	assert.Contains(t, *store.failedWith, "credential unavailable")
}

func TestProcessRun_MalformedResponseArchivedThenFailed(t *testing.T) {
	store := &fakeStore{}
	archiver := &fakeArchiver{}
	raw := []byte(`{"search_metadata": {"status": "Success"}}`)
	p := newProcessor(store, &fakeSearcher{raw: raw}, archiver,
		fakeSecrets{"SERPAPI_API_KEY": "sk"}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-4", Query: "q"})
	require.Error(t, err)

	// The malformed payload must still be archived for debugging
	require.Len(t, archiver.stored, 1)
	assert.Equal(t, raw, archiver.stored[0])

	require.NotNil(t, store.failedWith)
	assert.Contains(t, *store.failedWith, "organic_results")
}

func TestProcessRun_ArchiveFailureDoesNotFailRun(t *testing.T) {
	store := &fakeStore{}
	archiver := &fakeArchiver{err: errors.New("bucket unreachable")}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, archiver,
		fakeSecrets{"SERPAPI_API_KEY": "sk"}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-5", Query: "q"})
	require.NoError(t, err)
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 2, *store.completedWith)
}

func TestProcessRun_MissingAIKeySkipsEnrichment(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk"}, enricher)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-6", Query: "q"})
	require.NoError(t, err)

	assert.Empty(t, enricher.calls)
	assert.Empty(t, store.singleSaved)
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 2, *store.completedWith)
}

func TestProcessRun_EnricherConstructionFailureSkipsEnrichment(t *testing.T) {
	store := &fakeStore{}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, nil)
	p.NewEnricher = func(_ context.Context, _ string) (Enricher, error) {
		return nil, errors.New("client init failed")
	}

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-7", Query: "q"})
	require.NoError(t, err)
	require.NotNil(t, store.completedWith)
}

func TestProcessRun_PerLeadEnrichmentFailureIsolated(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{
		errFor: map[string]error{"Acme Corp": errors.New("quota exceeded")},
		enrichments: map[string]enrich.Enrichment{
			"Globex": {Summary: "Makes widgets.", EmailDraft: "Hi Globex!"},
		},
	}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-8", Query: "q"})
	require.NoError(t, err)

	// Both leads attempted and re-persisted; only the good one carries
	// enrichment
	assert.Equal(t, []string{"Acme Corp", "Globex"}, enricher.calls)
	require.Len(t, store.singleSaved, 2)
	assert.Equal(t, "Acme Corp", store.singleSaved[0].Company)
	assert.Empty(t, store.singleSaved[0].Summary)
	assert.Equal(t, "Globex", store.singleSaved[1].Company)
	assert.Equal(t, "Makes widgets.", store.singleSaved[1].Summary)

	// Count still covers all candidates, not just enriched ones
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 2, *store.completedWith)
}

func TestProcessRun_UndecodableModelOutputKeepsBareLead(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{badFor: map[string]bool{"Acme Corp": true, "Globex": true}}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-9", Query: "q"})
	require.NoError(t, err)

	require.Len(t, store.singleSaved, 2)
	for _, lead := range store.singleSaved {
		assert.Empty(t, lead.Summary)
		assert.Empty(t, lead.EmailDraft)
	}
	require.Len(t, store.bulkSaved, 2)
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 2, *store.completedWith)
}

func TestProcessRun_BulkPersistenceFailureFailsRun(t *testing.T) {
	store := &fakeStore{bulkErr: errors.New("connection reset")}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk"}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-10", Query: "q"})
	require.Error(t, err)
	require.NotNil(t, store.failedWith)
	assert.Contains(t, *store.failedWith, "persist leads")
}

func TestProcessRun_EmptyResultsCompletesWithZero(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{}
	p := newProcessor(store, &fakeSearcher{raw: []byte(`{"organic_results": []}`)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-11", Query: "q"})
	require.NoError(t, err)

	assert.Empty(t, enricher.calls)
	require.NotNil(t, store.completedWith)
	assert.Equal(t, 0, *store.completedWith)
}

type fakeCapturer struct {
	text     string
	captured []string
}

func (f *fakeCapturer) CaptureText(_ context.Context, link string) string {
	f.captured = append(f.captured, link)
	return f.text
}

func TestProcessRun_EmptyQueryTriggerSkipped(t *testing.T) {
	store := &fakeStore{}
	searcher := &fakeSearcher{raw: []byte(twoResults)}
	p := newProcessor(store, searcher, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk"}, nil)

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-e", Query: ""})
	require.NoError(t, err)

	// No search, no writes, no status transition
	assert.Empty(t, store.bulkSaved)
	assert.Empty(t, store.singleSaved)
	assert.Nil(t, store.completedWith)
	assert.Nil(t, store.failedWith)
}

func TestProcessRun_WebsiteTextPersistedWhenEnrichmentFails(t *testing.T) {
	store := &fakeStore{}
	capturer := &fakeCapturer{text: "We build reliable rockets."}
	enricher := &fakeEnricher{errFor: map[string]error{
		"Acme Corp": errors.New("quota exceeded"),
		"Globex":    errors.New("quota exceeded"),
	}}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)
	p.Capture = capturer

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-12", Query: "q"})
	require.NoError(t, err)

	// Captured text reaches the store even though every attempt failed
	require.Len(t, store.singleSaved, 2)
	for _, lead := range store.singleSaved {
		assert.Equal(t, "We build reliable rockets.", lead.WebsiteText)
		assert.Empty(t, lead.Summary)
	}
}

func TestProcessRun_CaptureUsesFullResultLink(t *testing.T) {
	store := &fakeStore{}
	capturer := &fakeCapturer{}
	enricher := &fakeEnricher{}
	p := newProcessor(store, &fakeSearcher{raw: []byte(twoResults)}, nil,
		fakeSecrets{"SERPAPI_API_KEY": "sk", "GEMINI_API_KEY": "gk"}, enricher)
	p.Capture = capturer

	err := p.ProcessRun(context.Background(), Trigger{Op: "INSERT", RunID: "run-13", Query: "q"})
	require.NoError(t, err)

	// The landing-page path must survive, not just the hostname
	assert.Equal(t, []string{"https://acme.com/about", "https://globex.io"}, capturer.captured)
}

func TestMapLeads(t *testing.T) {
	results := []search.Result{
		{Title: "Acme", Link: "https://acme.com/x", Snippet: "snip"},
		{Title: "NoLink", Link: "not a parseable host", Snippet: ""},
	}

	leads := mapLeads("run-x", results)
	require.Len(t, leads, 2)

	assert.Equal(t, "acme.com", leads[0].Domain)
	assert.Equal(t, "not a parseable host", leads[1].Domain)
	assert.Contains(t, leads[0].ID, "run-x#")
	assert.NotEqual(t, leads[0].ID, leads[1].ID)
	assert.Equal(t, db.LeadStatusNew, leads[0].Status)
	assert.Equal(t, db.LeadSourceGoogleSERP, leads[0].Source)
}

func TestParseTrigger(t *testing.T) {
	trigger, err := ParseTrigger(`{"op": "INSERT", "id": "run-1", "query": "saas"}`)
	require.NoError(t, err)
	assert.True(t, trigger.IsInsert())
	assert.Equal(t, "run-1", trigger.RunID)
	assert.Equal(t, "saas", trigger.Query)

	_, err = ParseTrigger(`not json`)
	assert.Error(t, err)

	_, err = ParseTrigger(`{"op": "INSERT"}`)
	assert.Error(t, err)

	// A run id without a query is incomplete and must not be processed
	_, err = ParseTrigger(`{"op": "INSERT", "id": "run-1"}`)
	assert.Error(t, err)

	_, err = ParseTrigger(`{"op": "INSERT", "id": "run-1", "query": ""}`)
	assert.Error(t, err)

	update, err := ParseTrigger(`{"op": "UPDATE", "id": "run-2", "query": "q"}`)
	require.NoError(t, err)
	assert.False(t, update.IsInsert())
}
