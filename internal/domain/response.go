package domain

import (
	"encoding/json"
	"strings"
)

// DocScore is the placeholder relevance score attached to every doc, since
// Globus Search does not return one.
const DocScore = 0.5

// nonQuotedFields are fq fields whose terms are rendered without quotes.
var nonQuotedFields = map[string]struct{}{"type": {}}

// FormatFQ renders one field's values as a legacy Solr filter-query
// fragment. Every term is double-quoted except terms of the "type" field
// and boolean terms; multiple values are OR'd together.
func FormatFQ(field FieldValues) string {
	_, bare := nonQuotedFields[field.Name]
	parts := make([]string, len(field.Values))
	for i, term := range field.Values {
		if bare || field.Bool {
			parts[i] = field.Name + ":" + term
		} else {
			parts[i] = field.Name + ":\"" + term + "\""
		}
	}
	return strings.Join(parts, " || ")
}

// SolrFQ is the legacy fq echo. A single fragment serializes as a bare
// string, anything else as a list; legacy clients depend on the collapse.
type SolrFQ []string

// MarshalJSON implements the one-or-list quirk.
func (fq SolrFQ) MarshalJSON() ([]byte, error) {
	if len(fq) == 1 {
		return json.Marshal(fq[0])
	}
	return json.Marshal([]string(fq))
}

// SolrParams echoes the constant Solr parameters legacy clients expect,
// plus the per-request q, fq, start and rows.
type SolrParams struct {
	DF            string `json:"df"`
	QAlt          string `json:"q.alt"`
	Indent        string `json:"indent"`
	EchoParams    string `json:"echoParams"`
	FL            string `json:"fl"`
	Start         string `json:"start"`
	FQ            SolrFQ `json:"fq"`
	Rows          string `json:"rows"`
	Q             string `json:"q"`
	Shards        string `json:"shards"`
	Tie           string `json:"tie"`
	FacetLimit    string `json:"facet.limit"`
	QF            string `json:"qf"`
	FacetMethod   string `json:"facet.method"`
	FacetMinCount string `json:"facet.mincount"`
	Facet         string `json:"facet"`
	WT            string `json:"wt"`
	FacetSort     string `json:"facet.sort"`
}

// ResponseHeader is the legacy response header.
type ResponseHeader struct {
	Status int        `json:"status"`
	QTime  int        `json:"QTime"`
	Params SolrParams `json:"params"`
}

// SolrDoc is one legacy result document.
type SolrDoc map[string]any

// SearchResult is the legacy response body.
type SearchResult struct {
	NumFound int       `json:"numFound"`
	Start    int       `json:"start"`
	MaxScore *float64  `json:"maxScore,omitempty"`
	Docs     []SolrDoc `json:"docs"`
}

// FacetCounts is the legacy facet section. The empty maps are serialized
// as {} rather than null; legacy clients index into them unconditionally.
type FacetCounts struct {
	FacetQueries   map[string]any   `json:"facet_queries"`
	FacetFields    map[string][]any `json:"facet_fields"`
	FacetRanges    map[string]any   `json:"facet_ranges"`
	FacetIntervals map[string]any   `json:"facet_intervals"`
	FacetHeatmaps  map[string]any   `json:"facet_heatmaps"`
}

// NewFacetCounts returns an empty facet section with all maps allocated.
func NewFacetCounts() FacetCounts {
	return FacetCounts{
		FacetQueries:   map[string]any{},
		FacetFields:    map[string][]any{},
		FacetRanges:    map[string]any{},
		FacetIntervals: map[string]any{},
		FacetHeatmaps:  map[string]any{},
	}
}

// ESGSearchResponse is the legacy response envelope.
type ESGSearchResponse struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Response       SearchResult   `json:"response"`
	FacetCounts    FacetCounts    `json:"facet_counts"`
}
