package search

import (
	"strconv"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

// assembleResponse translates a (merged) Globus result back into the
// legacy response shape. Pure.
func assembleResponse(q domain.SearchQuery, qtimeMillis int, res domain.GlobusResult) domain.ESGSearchResponse {
	docs := make([]domain.SolrDoc, 0, len(res.GMeta))
	for _, record := range res.GMeta {
		if len(record.Entries) == 0 {
			continue
		}
		doc := make(domain.SolrDoc, len(record.Entries[0].Content)+2)
		for k, v := range record.Entries[0].Content {
			doc[k] = v
		}
		doc["id"] = record.Subject
		doc["score"] = domain.DocScore
		docs = append(docs, doc)
	}

	var maxScore *float64
	for _, doc := range docs {
		score, ok := doc["score"].(float64)
		if !ok {
			continue
		}
		if maxScore == nil || score > *maxScore {
			s := score
			maxScore = &s
		}
	}

	facetCounts := domain.NewFacetCounts()
	for _, facet := range res.FacetResults {
		flat := make([]any, 0, 2*len(facet.Buckets))
		for _, bucket := range facet.Buckets {
			flat = append(flat, bucket.Value, bucket.Count)
		}
		facetCounts.FacetFields[facet.Name] = flat
	}

	return domain.ESGSearchResponse{
		ResponseHeader: domain.ResponseHeader{
			Status: 0,
			QTime:  qtimeMillis,
			Params: solrParams(q, res.Offset),
		},
		Response: domain.SearchResult{
			NumFound: res.Total,
			Start:    res.Offset,
			MaxScore: maxScore,
			Docs:     docs,
		},
		FacetCounts: facetCounts,
	}
}

// solrParams reconstructs the legacy parameter echo. The constants mirror
// what the Solr-backed service reported; clients parse them.
func solrParams(q domain.SearchQuery, start int) domain.SolrParams {
	fq := make(domain.SolrFQ, 0, len(q.Fields))
	for _, f := range q.Fields {
		fq = append(fq, domain.FormatFQ(f))
	}

	return domain.SolrParams{
		DF:            "text",
		QAlt:          "*:*",
		Indent:        "true",
		EchoParams:    "all",
		FL:            "*,score",
		Start:         strconv.Itoa(start),
		FQ:            fq,
		Rows:          strconv.Itoa(q.Limit),
		Q:             q.Query,
		Shards:        "esgf-data-node-solr-query:8983/solr/datasets",
		Tie:           "0.01",
		FacetLimit:    "-1",
		QF:            "text",
		FacetMethod:   "enum",
		FacetMinCount: "1",
		Facet:         "true",
		WT:            "json",
		FacetSort:     "lex",
	}
}
