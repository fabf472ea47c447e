// Package chi is the HTTP transport for the legacy search dialect.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/esgf-us/esg-bridge/internal/domain"
	"github.com/esgf-us/esg-bridge/internal/logger"
	healthuc "github.com/esgf-us/esg-bridge/internal/usecase/health"
	searchuc "github.com/esgf-us/esg-bridge/internal/usecase/search"
	"github.com/esgf-us/esg-bridge/internal/version"
)

// cacheControl is the fixed caller-facing cache policy: publication
// synchronization runs every five minutes, so every search response is
// publicly cacheable for that window, stale use included.
const cacheControl = "public, max-age=300, stale-while-revalidate=300, stale-if-error=300"

// ErrorResponse is the structured error body for upstream failures.
type ErrorResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail"`
	TraceID string `json:"trace_id"`
}

// Server handles the legacy search API.
type Server struct {
	search *searchuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, l *zap.Logger) *Server {
	return &Server{search: search, health: health, logger: l}
}

// Routes mounts the server's handlers on r.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/", s.Search)
	r.Get("/search", s.RedirectSearch)
	r.Get("/health", s.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Search handles GET /: the legacy flat-parameter search operation.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q, err := domain.ParseSearchQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid Search Parameters", err)
		return
	}

	cond := searchuc.Conditional{
		IfNoneMatch: r.Header.Get("If-None-Match"),
		IfMatch:     r.Header.Get("If-Match"),
	}

	result, err := s.search.Search(r.Context(), q, cond)

	w.Header().Set("Cache-Control", cacheControl)
	if result.CacheKey != "" {
		w.Header().Set("ETag", result.CacheKey)
	}

	if err != nil {
		s.handleSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Response)
}

// RedirectSearch handles GET /search: a permanent redirect to the root
// path for esgf-pyclient compatibility, query string preserved.
func (s *Server) RedirectSearch(w http.ResponseWriter, r *http.Request) {
	destination := &url.URL{Path: "/", RawQuery: r.URL.RawQuery}
	http.Redirect(w, r, destination.String(), http.StatusPermanentRedirect)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check()

	writeJSON(w, http.StatusOK, struct {
		healthuc.Report
		Version string `json:"version"`
		Commit  string `json:"commit"`
	}{Report: report, Version: version.Version, Commit: version.Commit})
}

func (s *Server) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotModified):
		w.WriteHeader(http.StatusNotModified)
	case errors.Is(err, domain.ErrPreconditionFailed):
		w.WriteHeader(http.StatusPreconditionFailed)
	case errors.Is(err, domain.ErrBadRequest):
		s.writeError(w, r, http.StatusBadRequest, "Invalid Search Parameters", err)
	case errors.Is(err, domain.ErrUpstreamTimeout):
		s.writeError(w, r, http.StatusGatewayTimeout, "Timeout While Connecting to Globus Search", err)
	default:
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			s.writeError(w, r, upstream.Status, "HTTP Status Error While Connecting to Globus Search", err)
			return
		}
		s.writeError(w, r, http.StatusBadGateway, "Error While Connecting to Globus Search", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, title string, err error) {
	body := ErrorResponse{
		Type:    errorType(err),
		Title:   title,
		Status:  status,
		Detail:  err.Error(),
		TraceID: chiMiddleware.GetReqID(r.Context()),
	}

	logger.FromContext(r.Context()).Error("search request failed",
		zap.Int("status", status),
		zap.String("title", title),
		zap.Error(err),
	)

	writeJSON(w, status, body)
}

// errorType names the error for the structured body, mirroring the
// exception class names legacy operators grep for.
func errorType(err error) string {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "TimeoutException"
	case errors.As(err, &upstream):
		return "HTTPStatusError"
	case errors.Is(err, domain.ErrBadRequest):
		return "RequestValidationError"
	default:
		return "TransportError"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
