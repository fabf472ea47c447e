package search

import (
	"context"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

// Backend executes structured queries against Globus Search. Implemented
// by repository/globus, which layers the response cache and bearer token
// underneath.
type Backend interface {
	Search(ctx context.Context, q domain.GlobusQuery) (*domain.GlobusResponse, error)
}

// Conditional carries the client's conditional-request validators.
type Conditional struct {
	IfNoneMatch string
	IfMatch     string
}

// Result is a completed search: the legacy response plus the rows-phase
// cache key served to clients as the etag.
type Result struct {
	Response  domain.ESGSearchResponse
	CacheKey  string
	FromCache bool
}
