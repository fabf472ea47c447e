package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/esgf-us/esg-bridge/internal/domain"
	"github.com/esgf-us/esg-bridge/internal/logger"
)

// Service translates legacy queries, runs them against Globus Search in
// two phases, and assembles the legacy response.
type Service struct {
	backend   Backend
	facetSize int
}

// New creates a search service. facetSize caps the bucket count requested
// per facet.
func New(backend Backend, facetSize int) *Service {
	if facetSize <= 0 {
		facetSize = domain.DefaultFacetSize
	}
	return &Service{backend: backend, facetSize: facetSize}
}

// Search runs one logical search. Globus Search is orders of magnitude
// faster answering rows-only and facets-only queries than a combined one,
// so the query is split: a rows query with facets suppressed, then - only
// after the rows response passed conditional validation - a facets query
// with limit 0. Facet results from the second phase are merged into the
// first.
func (s *Service) Search(ctx context.Context, q domain.SearchQuery, cond Conditional) (Result, error) {
	gq := MapQuery(q, s.facetSize)

	rows, err := s.backend.Search(ctx, gq.WithoutFacets())
	if err != nil {
		return Result{}, fmt.Errorf("rows query: %w", err)
	}

	if err := validateConditional(rows, cond); err != nil {
		return Result{CacheKey: rows.CacheKey}, err
	}

	merged := rows.Result
	if len(gq.Facets) > 0 {
		facets, err := s.backend.Search(ctx, gq.WithoutRows())
		if err != nil {
			return Result{}, fmt.Errorf("facets query: %w", err)
		}
		merged.FacetResults = facets.Result.FacetResults
	}

	logger.FromContext(ctx).Debug("search executed",
		zap.Int("total", merged.Total),
		zap.Int("facets", len(merged.FacetResults)),
		zap.Bool("from_cache", rows.FromCache),
	)

	return Result{
		Response:  assembleResponse(q, rows.Timings["total"], merged),
		CacheKey:  rows.CacheKey,
		FromCache: rows.FromCache,
	}, nil
}

// validateConditional checks the client's etag validators against the
// rows-phase cache key. Only responses served from the cache are
// validated; a fresh backend response never short-circuits. if-match is
// consulted only when if-none-match is absent, matching the legacy
// service.
func validateConditional(rows *domain.GlobusResponse, cond Conditional) error {
	if !rows.FromCache {
		return nil
	}
	if cond.IfNoneMatch != "" {
		if cond.IfNoneMatch == rows.CacheKey {
			return domain.ErrNotModified
		}
		return nil
	}
	if cond.IfMatch != "" && cond.IfMatch != rows.CacheKey {
		return domain.ErrPreconditionFailed
	}
	return nil
}
