package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest signals a malformed search parameter.
	ErrBadRequest = errors.New("bad request")
	// ErrNotModified signals a conditional request whose etag matched the cached response.
	ErrNotModified = errors.New("not modified")
	// ErrPreconditionFailed signals a conditional request whose etag did not match.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrUpstreamTimeout signals that Globus Search did not respond in time.
	ErrUpstreamTimeout = errors.New("timeout while connecting to Globus Search")
	// ErrMissingScopedToken signals a token response without a search-scoped token.
	ErrMissingScopedToken = errors.New("token response did not contain a search token")
)

// UpstreamError wraps a non-success status returned by Globus Search.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("globus search returned status %d: %s", e.Status, e.Detail)
}
