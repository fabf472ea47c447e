package search

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

type mockBackend struct {
	calls     []domain.GlobusQuery
	responses []*domain.GlobusResponse
	err       error
}

func (m *mockBackend) Search(_ context.Context, q domain.GlobusQuery) (*domain.GlobusResponse, error) {
	m.calls = append(m.calls, q)
	if m.err != nil {
		return nil, m.err
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func rowsResponse() *domain.GlobusResponse {
	return &domain.GlobusResponse{
		Result: domain.GlobusResult{
			GMeta: []domain.GlobusMetaResult{
				{
					Subject: "CMIP6.CMIP.NASA.one",
					Entries: []domain.GlobusMetaEntry{{Content: map[string]any{"variable_id": "tas"}}},
				},
			},
			Total: 1,
		},
		Timings:  map[string]int{"total": 123},
		CacheKey: "751ef835d1fcb35932af51f937204956",
	}
}

func facetsResponse() *domain.GlobusResponse {
	return &domain.GlobusResponse{
		Result: domain.GlobusResult{
			FacetResults: []domain.GlobusFacetResult{
				{Name: "experiment", Buckets: []domain.GlobusBucket{{Value: "historical", Count: 9}}},
			},
		},
		Timings:  map[string]int{"total": 45},
		CacheKey: "0f343b0931126a20f133d67c2b018a3b",
	}
}

func TestSearch_TwoPhases(t *testing.T) {
	backend := &mockBackend{responses: []*domain.GlobusResponse{rowsResponse(), facetsResponse()}}
	svc := New(backend, 0)

	q := mustParse(t, url.Values{
		"project": {"CMIP6"},
		"facets":  {"experiment"},
		"limit":   {"10"},
	})
	res, err := svc.Search(context.Background(), q, Conditional{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.calls) != 2 {
		t.Fatalf("backend calls = %d, want 2", len(backend.calls))
	}
	rows, facets := backend.calls[0], backend.calls[1]
	if rows.Facets != nil {
		t.Error("rows query must not carry facets")
	}
	if rows.Limit != 10 {
		t.Errorf("rows limit = %d, want 10", rows.Limit)
	}
	if facets.Limit != 0 {
		t.Errorf("facets limit = %d, want 0", facets.Limit)
	}
	if len(facets.Facets) != 1 || facets.Facets[0].Name != "experiment" {
		t.Errorf("facets query facets = %v", facets.Facets)
	}

	// QTime comes from the rows phase; facet results from the second.
	if res.Response.ResponseHeader.QTime != 123 {
		t.Errorf("QTime = %d, want 123", res.Response.ResponseHeader.QTime)
	}
	if _, ok := res.Response.FacetCounts.FacetFields["experiment"]; !ok {
		t.Error("facet results not merged into the response")
	}
	if res.CacheKey != "751ef835d1fcb35932af51f937204956" {
		t.Errorf("cache key = %q, want the rows-phase key", res.CacheKey)
	}
}

func TestSearch_SinglePhaseWithoutFacets(t *testing.T) {
	backend := &mockBackend{responses: []*domain.GlobusResponse{rowsResponse()}}
	svc := New(backend, 0)

	_, err := svc.Search(context.Background(), mustParse(t, url.Values{}), Conditional{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.calls) != 1 {
		t.Errorf("backend calls = %d, want 1", len(backend.calls))
	}
}

func TestSearch_NotModifiedShortCircuitsFacets(t *testing.T) {
	rows := rowsResponse()
	rows.FromCache = true
	backend := &mockBackend{responses: []*domain.GlobusResponse{rows, facetsResponse()}}
	svc := New(backend, 0)

	q := mustParse(t, url.Values{"facets": {"experiment"}})
	res, err := svc.Search(context.Background(), q, Conditional{IfNoneMatch: rows.CacheKey})
	if !errors.Is(err, domain.ErrNotModified) {
		t.Fatalf("expected ErrNotModified, got %v", err)
	}
	if res.CacheKey != rows.CacheKey {
		t.Errorf("cache key = %q, want %q", res.CacheKey, rows.CacheKey)
	}
	if len(backend.calls) != 1 {
		t.Errorf("backend calls = %d, want 1 (facets phase skipped)", len(backend.calls))
	}
}

func TestSearch_ConditionalValidation(t *testing.T) {
	key := rowsResponse().CacheKey
	tests := []struct {
		name      string
		fromCache bool
		cond      Conditional
		wantErr   error
	}{
		{"if-none-match hit", true, Conditional{IfNoneMatch: key}, domain.ErrNotModified},
		{"if-none-match miss", true, Conditional{IfNoneMatch: "other"}, nil},
		{"if-match hit", true, Conditional{IfMatch: key}, nil},
		{"if-match miss", true, Conditional{IfMatch: "other"}, domain.ErrPreconditionFailed},
		{"if-none-match shadows if-match", true, Conditional{IfNoneMatch: "other", IfMatch: "other"}, nil},
		{"fresh response never validated", false, Conditional{IfNoneMatch: key, IfMatch: "other"}, nil},
		{"no validators", true, Conditional{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := rowsResponse()
			rows.FromCache = tt.fromCache
			backend := &mockBackend{responses: []*domain.GlobusResponse{rows}}
			svc := New(backend, 0)

			_, err := svc.Search(context.Background(), mustParse(t, url.Values{}), tt.cond)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearch_BackendError(t *testing.T) {
	wantErr := errors.New("boom")
	backend := &mockBackend{err: wantErr}
	svc := New(backend, 0)

	_, err := svc.Search(context.Background(), mustParse(t, url.Values{}), Conditional{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
}
