// Package token keeps the shared Globus bearer token fresh.
package token

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/esgf-us/esg-bridge/internal/domain"
	"github.com/esgf-us/esg-bridge/internal/metrics"
)

// State is the refresher's lifecycle state.
type State string

const (
	// StateDisabled means no client credentials are configured.
	StateDisabled State = "disabled"
	// StateRefreshing means a token exchange is in flight.
	StateRefreshing State = "refreshing"
	// StateScheduled means a fresh token is installed and the next
	// refresh is pending.
	StateScheduled State = "scheduled"
	// StateFailed means the refresh cycle aborted and will not resume
	// without operator intervention.
	StateFailed State = "failed"
	// StateStopped means the refresher was cancelled on shutdown.
	StateStopped State = "stopped"
)

// expiryMargin is subtracted from a token's expires_in when deriving the
// refresh interval.
const expiryMargin = 60 * time.Second

// retryInterval paces retries after transient refresh failures.
const retryInterval = 30 * time.Second

// Refresher periodically exchanges client credentials for a search-scoped
// bearer token and installs it on the shared client. It is the token's
// only writer.
type Refresher struct {
	auth         Authenticator
	sink         Sink
	clientID     string
	clientSecret string
	// interval fixes the refresh cadence; 0 derives it per token.
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a token refresher.
func New(auth Authenticator, sink Sink, clientID, clientSecret string, interval time.Duration, l *zap.Logger) *Refresher {
	state := StateScheduled
	if clientID == "" || clientSecret == "" {
		state = StateDisabled
	}
	return &Refresher{
		auth:         auth,
		sink:         sink,
		clientID:     clientID,
		clientSecret: clientSecret,
		interval:     interval,
		logger:       l,
		state:        state,
	}
}

// Enabled reports whether credentials are configured.
func (r *Refresher) Enabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// State returns the current lifecycle state.
func (r *Refresher) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StateName returns the state as a plain string for health reporting.
func (r *Refresher) StateName() string {
	return string(r.State())
}

func (r *Refresher) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run refreshes the token until ctx is cancelled. Disabled refreshers
// return immediately. A token response without a search-scoped token is a
// configuration error: the cycle stops without rescheduling, and requests
// keep using whatever token was installed last. Transient exchange
// failures are retried on a short interval since the previous token is
// usually still valid.
func (r *Refresher) Run(ctx context.Context) {
	if !r.Enabled() {
		r.setState(StateDisabled)
		r.logger.Warn("globus client id and secret not set, skipping token renewal")
		return
	}

	for {
		r.setState(StateRefreshing)
		r.logger.Info("renewing globus search token")

		wait, err := r.refresh(ctx)
		switch {
		case errors.Is(err, domain.ErrMissingScopedToken):
			metrics.TokenRefreshesTotal.WithLabelValues("missing_scope").Inc()
			r.setState(StateFailed)
			r.logger.Error("token response has no search-scoped token, stopping renewal", zap.Error(err))
			return
		case err != nil:
			if ctx.Err() != nil {
				r.setState(StateStopped)
				return
			}
			metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
			r.logger.Error("globus token refresh failed", zap.Error(err))
			wait = retryInterval
		default:
			metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
			r.setState(StateScheduled)
			r.logger.Debug("globus search token renewed", zap.Duration("next_refresh", wait))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.setState(StateStopped)
			return
		case <-timer.C:
		}
	}
}

// refresh performs one token exchange and returns the wait before the
// next one.
func (r *Refresher) refresh(ctx context.Context) (time.Duration, error) {
	resp, err := r.auth.FetchToken(ctx, r.clientID, r.clientSecret)
	if err != nil {
		return 0, err
	}

	tok, err := domain.FindSearchToken(resp)
	if err != nil {
		return 0, err
	}

	r.sink.SetToken(tok.AccessToken)

	if r.interval > 0 {
		return r.interval, nil
	}
	wait := time.Duration(tok.ExpiresIn)*time.Second - expiryMargin
	if wait < expiryMargin {
		wait = expiryMargin
	}
	return wait, nil
}
