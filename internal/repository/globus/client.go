// Package globus is the HTTP client for Globus Search: the search
// endpoint behind a forced-TTL response cache, and the uncached OAuth2
// token endpoint.
package globus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/esgf-us/esg-bridge/internal/domain"
	"github.com/esgf-us/esg-bridge/internal/logger"
	"github.com/esgf-us/esg-bridge/internal/metrics"
)

// Config holds client settings.
type Config struct {
	SearchURL string
	AuthURL   string
	// Timeout bounds each upstream call; expiry surfaces as
	// domain.ErrUpstreamTimeout.
	Timeout time.Duration
	// CacheTTL is the forced reuse window for search responses.
	CacheTTL time.Duration
}

// Client talks to Globus Search. The bearer token is single-writer (the
// token refresher) and multi-reader (every search call).
type Client struct {
	httpc     *http.Client
	searchURL string
	authURL   string
	timeout   time.Duration
	cache     *responseCache

	mu    sync.RWMutex
	token string
}

// New creates a Globus Search client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		httpc:     &http.Client{},
		searchURL: cfg.SearchURL,
		authURL:   cfg.AuthURL,
		timeout:   cfg.Timeout,
		cache:     newResponseCache(cfg.CacheTTL),
	}
}

// SetToken installs the bearer token used by subsequent search calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Search POSTs a structured query. Responses are cached by the MD5 of the
// serialized body for the configured TTL regardless of upstream cache
// headers; the key doubles as the caller-facing etag. Racing misses for
// one key may both reach the backend; the last write wins.
func (c *Client) Search(ctx context.Context, q domain.GlobusQuery) (*domain.GlobusResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	key := cacheKey(body)

	if entry, ok := c.cache.get(key); ok {
		metrics.CacheHitsTotal.Inc()
		logger.FromContext(ctx).Debug("globus search cache hit", zap.String("cache_key", key))
		return &domain.GlobusResponse{
			Result:    entry.result,
			Timings:   entry.timings,
			FromCache: true,
			CacheKey:  key,
		}, nil
	}

	logger.FromContext(ctx).Debug("issuing globus search query", zap.ByteString("query", body))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("globus search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	var result domain.GlobusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}

	timings := ParseServerTiming(resp.Header.Get("Server-Timing"))
	c.cache.put(key, cacheEntry{result: result, timings: timings})

	return &domain.GlobusResponse{
		Result:   result,
		Timings:  timings,
		CacheKey: key,
	}, nil
}

// FetchToken exchanges client credentials for tokens. Never cached.
func (c *Client) FetchToken(ctx context.Context, clientID, clientSecret string) (domain.GlobusTokenResponse, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"urn:globus:auth:scope:search.api.globus.org:search"},
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		callCtx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return domain.GlobusTokenResponse{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("token").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.GlobusTokenResponse{}, fmt.Errorf("%w: %s", domain.ErrUpstreamTimeout, err)
		}
		return domain.GlobusTokenResponse{}, fmt.Errorf("globus token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.GlobusTokenResponse{}, &domain.UpstreamError{
			Status: resp.StatusCode,
			Detail: strings.TrimSpace(string(detail)),
		}
	}

	var tokens domain.GlobusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return domain.GlobusTokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	return tokens, nil
}
