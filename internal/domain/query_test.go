package domain

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func fieldValues(q SearchQuery, name string) []string {
	for _, f := range q.Fields {
		if f.Name == name {
			return f.Values
		}
	}
	return nil
}

func TestParseSearchQuery_Defaults(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Query != "*:*" {
		t.Errorf("default query = %q, want *:*", q.Query)
	}
	if q.Limit != DefaultLimit {
		t.Errorf("default limit = %d, want %d", q.Limit, DefaultLimit)
	}
	if q.Offset != 0 {
		t.Errorf("default offset = %d, want 0", q.Offset)
	}
	if got := q.Type(); got != "Dataset" {
		t.Errorf("default type = %q, want Dataset", got)
	}
	// The defaulted type is a set field: it filters and echoes.
	if got := fieldValues(q, "type"); len(got) != 1 || got[0] != "Dataset" {
		t.Errorf("type field values = %v, want [Dataset]", got)
	}
}

func TestParseSearchQuery_CommaSplitAndEmptyValues(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{
		"data_node":  {"a,b", "c"},
		"experiment": {""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := fieldValues(q, "data_node"); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("data_node values = %v, want [a b c]", got)
	}
	if got := fieldValues(q, "experiment"); got != nil {
		t.Errorf("empty experiment value should be dropped, got %v", got)
	}
}

func TestParseSearchQuery_SingleValuedTakesFirst(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{"project": {"CMIP6", "CMIP5"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fieldValues(q, "project"); len(got) != 1 || got[0] != "CMIP6" {
		t.Errorf("project values = %v, want [CMIP6]", got)
	}
}

func TestParseSearchQuery_AliasResolution(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{"height-units": {"m"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fieldValues(q, "height_units"); len(got) != 1 || got[0] != "m" {
		t.Errorf("height_units values = %v, want [m]", got)
	}
	if got := fieldValues(q, "height-units"); got != nil {
		t.Errorf("alias name should not appear as a field, got %v", got)
	}
}

func TestParseSearchQuery_AliasAndCanonicalMergeOrder(t *testing.T) {
	// Mixed spellings in one request must merge canonical-first; the fq
	// echo and the cache key depend on the order being stable.
	params := url.Values{
		"height-units": {"cm"},
		"height_units": {"m"},
	}
	for i := 0; i < 20; i++ {
		q, err := ParseSearchQuery(params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := fieldValues(q, "height_units")
		if len(got) != 2 || got[0] != "m" || got[1] != "cm" {
			t.Fatalf("height_units values = %v, want [m cm]", got)
		}
	}
}

func TestParseSearchQuery_FieldsInRegistryOrder(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{
		"variable_id": {"tas"},
		"activity_id": {"CMIP"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, f := range q.Fields {
		names = append(names, f.Name)
	}
	// activity_id precedes variable_id in the registry; type is appended
	// at its registry position (after the alphabetical block).
	want := []string{"activity_id", "variable_id", "type"}
	if len(names) != len(want) {
		t.Fatalf("field names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field names = %v, want %v", names, want)
		}
	}
}

func TestParseSearchQuery_MetaParameters(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{
		"query":       {"temperature"},
		"facets":      {"experiment, model"},
		"offset":      {"20"},
		"limit":       {"5"},
		"from":        {"2023-01-02T03:04:05Z"},
		"min_version": {"5"},
		"replica":     {"true"},
		"distrib":     {"false"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Query != "temperature" {
		t.Errorf("query = %q", q.Query)
	}
	if len(q.Facets) != 2 || q.Facets[0] != "experiment" || q.Facets[1] != "model" {
		t.Errorf("facets = %v, want [experiment model]", q.Facets)
	}
	if q.Offset != 20 || q.Limit != 5 {
		t.Errorf("paging = %d/%d, want 20/5", q.Offset, q.Limit)
	}
	want := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	if q.From == nil || !q.From.Equal(want) {
		t.Errorf("from = %v, want %v", q.From, want)
	}
	if q.MinVersion == nil || *q.MinVersion != 5 {
		t.Errorf("min_version = %v, want 5", q.MinVersion)
	}
	// replica/distrib are recognized but never become fields.
	if fieldValues(q, "replica") != nil || fieldValues(q, "distrib") != nil {
		t.Error("replica/distrib must not be queryable fields")
	}
}

func TestParseSearchQuery_UnknownParameterIgnored(t *testing.T) {
	q, err := ParseSearchQuery(url.Values{"not_a_field": {"x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Fields) != 1 { // just the defaulted type
		t.Errorf("fields = %v, want only type", q.Fields)
	}
}

func TestParseSearchQuery_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{"offset above globus limit", url.Values{"offset": {"10000"}}},
		{"negative limit", url.Values{"limit": {"-1"}}},
		{"non-integer offset", url.Values{"offset": {"ten"}}},
		{"bad facets list", url.Values{"facets": {"experiment;model"}}},
		{"bad timestamp", url.Values{"to": {"yesterday"}}},
		{"bad min_version", url.Values{"min_version": {"v5"}}},
		{"bad record type", url.Values{"type": {"Collection"}}},
		{"bad format", url.Values{"format": {"text/csv"}}},
		{"bad latest", url.Values{"latest": {"yes"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSearchQuery(tt.params)
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}
}
