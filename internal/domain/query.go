package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultQuery is the legacy dialect's "everything" query.
	DefaultQuery = "*:*"
	// DefaultType is the record type searched when none is given.
	DefaultType = "Dataset"
	// DefaultLimit is the number of rows returned when none is requested.
	DefaultLimit = 10
	// MaxOffset is the largest offset Globus Search accepts.
	MaxOffset = 9999
)

var recordTypes = map[string]struct{}{"Dataset": {}, "File": {}, "Aggregation": {}}

var formats = map[string]struct{}{
	"application/solr+xml":  {},
	"application/solr+json": {},
}

var facetsPattern = regexp.MustCompile(`^\w+(,\w+)*$`)

// timestampLayouts are the accepted spellings of the from/to bounds.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FieldValues holds the caller-supplied values of one queryable field.
type FieldValues struct {
	Name   string
	Values []string
	Bool   bool
}

// SearchQuery is a parsed legacy search request.
type SearchQuery struct {
	Query  string
	Format string
	Offset int
	Limit  int
	Facets []string

	From       *time.Time
	To         *time.Time
	MinVersion *int
	MaxVersion *int

	// Fields are the set queryable fields in registry (echo) order.
	Fields []FieldValues
}

// ParseSearchQuery builds a SearchQuery from flat request parameters.
// Unrecognized parameters are ignored for legacy-client compatibility;
// malformed values of recognized parameters fail with ErrBadRequest.
func ParseSearchQuery(params url.Values) (SearchQuery, error) {
	q := SearchQuery{
		Query:  DefaultQuery,
		Format: "application/solr+xml",
		Limit:  DefaultLimit,
	}

	if v := params.Get("query"); v != "" {
		q.Query = v
	}
	if v := params.Get("format"); v != "" {
		if _, ok := formats[v]; !ok {
			return q, fmt.Errorf("%w: unsupported format %q", ErrBadRequest, v)
		}
		q.Format = v
	}

	var err error
	if q.Offset, err = parseBoundedInt(params, "offset", 0, 0, MaxOffset); err != nil {
		return q, err
	}
	if q.Limit, err = parseBoundedInt(params, "limit", DefaultLimit, 0, -1); err != nil {
		return q, err
	}

	if v := params.Get("facets"); v != "" {
		names, err := parseFacetNames(v)
		if err != nil {
			return q, err
		}
		q.Facets = names
	}

	if q.From, err = parseTimestamp(params, "from"); err != nil {
		return q, err
	}
	if q.To, err = parseTimestamp(params, "to"); err != nil {
		return q, err
	}
	if q.MinVersion, err = parseOptionalInt(params, "min_version"); err != nil {
		return q, err
	}
	if q.MaxVersion, err = parseOptionalInt(params, "max_version"); err != nil {
		return q, err
	}

	if q.Fields, err = parseQueryableFields(params); err != nil {
		return q, err
	}

	return q, nil
}

// Type returns the record type of the query (always set; defaults to Dataset).
func (q SearchQuery) Type() string {
	for _, f := range q.Fields {
		if f.Name == "type" {
			return f.Values[0]
		}
	}
	return DefaultType
}

// parseQueryableFields collects every set queryable field in registry order.
// Per field, values under the canonical name come before alias values, so
// mixed spellings in one request merge deterministically (the fq echo and
// the cache key depend on a stable order). Values are comma-split and empty
// terms dropped; a field whose values are all empty is excluded entirely.
// The record type is always present, defaulted to Dataset when the caller
// omitted it.
func parseQueryableFields(params url.Values) ([]FieldValues, error) {
	set := make(map[string][]string)
	for _, f := range QueryableFields() {
		values := append([]string(nil), params[f.Name]...)
		for _, alias := range f.Aliases {
			values = append(values, params[alias]...)
		}
		if f.Single && len(values) > 1 {
			values = values[:1]
		}
		for _, v := range values {
			for _, term := range strings.Split(v, ",") {
				if term == "" {
					continue
				}
				set[f.Name] = append(set[f.Name], term)
			}
		}
	}

	if len(set["type"]) == 0 {
		set["type"] = []string{DefaultType}
	}
	if _, ok := recordTypes[set["type"][0]]; !ok {
		return nil, fmt.Errorf("%w: unsupported record type %q", ErrBadRequest, set["type"][0])
	}

	var fields []FieldValues
	for _, f := range QueryableFields() {
		values, ok := set[f.Name]
		if !ok {
			continue
		}
		if f.Bool {
			for _, v := range values {
				if v != "true" && v != "false" {
					return nil, fmt.Errorf("%w: %s must be true or false, got %q", ErrBadRequest, f.Name, v)
				}
			}
		}
		fields = append(fields, FieldValues{Name: f.Name, Values: values, Bool: f.Bool})
	}
	return fields, nil
}

func parseFacetNames(raw string) ([]string, error) {
	trimmed := make([]string, 0, strings.Count(raw, ",")+1)
	for _, name := range strings.Split(raw, ",") {
		trimmed = append(trimmed, strings.TrimSpace(name))
	}
	if !facetsPattern.MatchString(strings.Join(trimmed, ",")) {
		return nil, fmt.Errorf("%w: invalid facets list %q", ErrBadRequest, raw)
	}
	return trimmed, nil
}

// parseBoundedInt parses an integer parameter within [min, max]; max < 0
// means unbounded above.
func parseBoundedInt(params url.Values, name string, def, min, max int) (int, error) {
	v := params.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, name, v)
	}
	if n < min || (max >= 0 && n > max) {
		return 0, fmt.Errorf("%w: %s out of range: %d", ErrBadRequest, name, n)
	}
	return n, nil
}

func parseOptionalInt(params url.Values, name string) (*int, error) {
	v := params.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, name, v)
	}
	return &n, nil
}

func parseTimestamp(params url.Values, name string) (*time.Time, error) {
	v := params.Get(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not a valid timestamp: %q", ErrBadRequest, name, v)
}
