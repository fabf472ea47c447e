package domain

// QueryVersion is the Globus Search query document version the bridge emits.
const QueryVersion = "query#1.0.0"

// RangeUnbounded is the sentinel Globus Search uses for an open range end.
const RangeUnbounded = "*"

// DefaultFacetSize is the facet bucket count requested from Globus Search.
// Globus has no "unlimited" option and fails somewhere above this value, so
// it doubles as the upper bound for configured sizes.
const DefaultFacetSize = 2_000_000_000

// GlobusFilter is a filter document in a Globus Search query. Implemented
// by MatchFilter and RangeFilter.
type GlobusFilter interface {
	FilterType() string
}

// MatchFilter filters a field to a set of values.
type MatchFilter struct {
	Type      string `json:"type"`
	FieldName string `json:"field_name"`
	Values    []any  `json:"values"`
}

// FilterType returns the filter's type tag.
func (f MatchFilter) FilterType() string { return f.Type }

// MatchAny builds a match_any filter over string values.
func MatchAny(field string, values []string) MatchFilter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return MatchFilter{Type: "match_any", FieldName: field, Values: vs}
}

// MatchAnyBool builds a match_any filter over boolean values.
func MatchAnyBool(field string, values []bool) MatchFilter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return MatchFilter{Type: "match_any", FieldName: field, Values: vs}
}

// RangeFilter filters a field to a bounded or half-open range. An
// unbounded end carries the RangeUnbounded sentinel.
type RangeFilter struct {
	Type      string `json:"type"`
	FieldName string `json:"field_name"`
	From      any    `json:"from"`
	To        any    `json:"to"`
}

// FilterType returns the filter's type tag.
func (f RangeFilter) FilterType() string { return f.Type }

// Range builds a range filter, substituting the wildcard for nil bounds.
func Range(field string, from, to any) RangeFilter {
	if from == nil {
		from = RangeUnbounded
	}
	if to == nil {
		to = RangeUnbounded
	}
	return RangeFilter{Type: "range", FieldName: field, From: from, To: to}
}

// GlobusFacet requests a terms aggregation over one field.
type GlobusFacet struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	FieldName string `json:"field_name"`
	Size      int    `json:"size"`
}

// GlobusQuery is the structured query document POSTed to Globus Search.
type GlobusQuery struct {
	Version  string         `json:"@version"`
	Q        string         `json:"q,omitempty"`
	Advanced bool           `json:"advanced"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Filters  []GlobusFilter `json:"filters,omitempty"`
	Facets   []GlobusFacet  `json:"facets,omitempty"`
}

// WithoutFacets returns a copy with the facet requests cleared. Used for
// the rows phase of a split query.
func (q GlobusQuery) WithoutFacets() GlobusQuery {
	q.Facets = nil
	return q
}

// WithoutRows returns a copy requesting no rows. Used for the facets phase
// of a split query.
func (q GlobusQuery) WithoutRows() GlobusQuery {
	q.Limit = 0
	return q
}

// GlobusMetaEntry is one metadata entry of a search hit.
type GlobusMetaEntry struct {
	Content              map[string]any `json:"content"`
	EntryID              *string        `json:"entry_id"`
	MatchedPrincipalSets []string       `json:"matched_principal_sets"`
}

// GlobusMetaResult groups the entries of one subject.
type GlobusMetaResult struct {
	Subject string            `json:"subject"`
	Entries []GlobusMetaEntry `json:"entries"`
}

// GlobusBucket is a facet bucket: one distinct value and its count.
type GlobusBucket struct {
	Value any `json:"value"`
	Count int `json:"count"`
}

// GlobusFacetResult carries the buckets of one requested facet.
type GlobusFacetResult struct {
	Name    string         `json:"name"`
	Value   *float64       `json:"value,omitempty"`
	Buckets []GlobusBucket `json:"buckets"`
}

// GlobusResult is the structured result document returned by Globus Search.
type GlobusResult struct {
	GMeta        []GlobusMetaResult  `json:"gmeta"`
	FacetResults []GlobusFacetResult `json:"facet_results,omitempty"`
	Offset       int                 `json:"offset"`
	Count        int                 `json:"count"`
	Total        int                 `json:"total"`
	HasNextPage  bool                `json:"has_next_page"`
}

// GlobusResponse is a Globus Search result plus the transport metadata the
// planner needs: per-phase server timings in milliseconds and the cache
// key the response body hashes to (reused as the caller-facing etag).
type GlobusResponse struct {
	Result    GlobusResult
	Timings   map[string]int
	FromCache bool
	CacheKey  string
}

// GlobusToken is one token of a Globus OAuth2 token response.
type GlobusToken struct {
	AccessToken    string `json:"access_token"`
	ExpiresIn      int    `json:"expires_in"`
	ResourceServer string `json:"resource_server"`
	Scope          string `json:"scope"`
	TokenType      string `json:"token_type"`
}

// GlobusTokenResponse is a client-credentials grant response. The search
// token may be the top-level token or nested in OtherTokens.
type GlobusTokenResponse struct {
	GlobusToken
	IDToken     string        `json:"id_token"`
	State       string        `json:"state"`
	OtherTokens []GlobusToken `json:"other_tokens"`
}

// SearchResourceServer identifies the token scoped for Globus Search.
const SearchResourceServer = "search.api.globus.org"

// FindSearchToken locates the token scoped for Globus Search in a token
// response. Absence is a configuration error surfaced as
// ErrMissingScopedToken.
func FindSearchToken(resp GlobusTokenResponse) (GlobusToken, error) {
	if resp.ResourceServer == SearchResourceServer {
		return resp.GlobusToken, nil
	}
	for _, tok := range resp.OtherTokens {
		if tok.ResourceServer == SearchResourceServer {
			return tok, nil
		}
	}
	return GlobusToken{}, ErrMissingScopedToken
}
