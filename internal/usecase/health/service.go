// Package health aggregates component liveness for the health endpoint.
package health

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// Report aggregates health check results.
type Report struct {
	Status Status            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// TokenStateReader exposes the token refresher's lifecycle state.
type TokenStateReader interface {
	Enabled() bool
	StateName() string
}

// Service reports bridge health. The bridge holds no connections of its
// own, so the only component with a failure mode between requests is the
// token refresher.
type Service struct {
	token TokenStateReader
}

// New creates a health service.
func New(token TokenStateReader) *Service {
	return &Service{token: token}
}

// Check builds a health report.
func (s *Service) Check() Report {
	checks := map[string]string{
		"token_refresher": s.token.StateName(),
	}

	status := Healthy
	if s.token.Enabled() && s.token.StateName() == "failed" {
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
