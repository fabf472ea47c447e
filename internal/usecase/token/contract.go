package token

import (
	"context"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

// Authenticator exchanges client credentials for Globus tokens.
// Implemented by repository/globus; token calls bypass the response cache.
type Authenticator interface {
	FetchToken(ctx context.Context, clientID, clientSecret string) (domain.GlobusTokenResponse, error)
}

// Sink receives refreshed bearer tokens.
type Sink interface {
	SetToken(token string)
}
