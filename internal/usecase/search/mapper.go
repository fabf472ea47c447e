package search

import (
	"github.com/esgf-us/esg-bridge/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"

// wildcardQueries are free-text queries meaning "everything". Solr accepts
// them; Globus Search mishandles the literal, so they are omitted.
func isWildcardQuery(q string) bool {
	return q == "" || q == "*" || q == "*:*"
}

// MapQuery translates a parsed legacy query into a Globus Search query
// document. Pure; never fails on a parsed query.
func MapQuery(q domain.SearchQuery, facetSize int) domain.GlobusQuery {
	gq := domain.GlobusQuery{
		Version:  domain.QueryVersion,
		Advanced: true,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	if !isWildcardQuery(q.Query) {
		gq.Q = q.Query
	}

	if q.MinVersion != nil || q.MaxVersion != nil {
		gq.Filters = append(gq.Filters, domain.Range("version", intBound(q.MinVersion), intBound(q.MaxVersion)))
	}
	if q.From != nil || q.To != nil {
		var from, to any
		if q.From != nil {
			from = q.From.UTC().Format(timestampFormat)
		}
		if q.To != nil {
			to = q.To.UTC().Format(timestampFormat)
		}
		gq.Filters = append(gq.Filters, domain.Range("_timestamp", from, to))
	}

	for _, f := range q.Fields {
		if len(f.Values) == 0 {
			continue
		}
		if f.Bool {
			bools := make([]bool, len(f.Values))
			for i, v := range f.Values {
				bools[i] = v == "true"
			}
			gq.Filters = append(gq.Filters, domain.MatchAnyBool(f.Name, bools))
			continue
		}
		gq.Filters = append(gq.Filters, domain.MatchAny(f.Name, f.Values))
	}

	for _, name := range q.Facets {
		gq.Facets = append(gq.Facets, domain.GlobusFacet{
			Name:      name,
			Type:      "terms",
			FieldName: name,
			Size:      facetSize,
		})
	}

	return gq
}

func intBound(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
