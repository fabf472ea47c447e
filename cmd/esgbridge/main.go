package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/esgf-us/esg-bridge/internal/config"
	logpkg "github.com/esgf-us/esg-bridge/internal/logger"
	"github.com/esgf-us/esg-bridge/internal/metrics"
	globusrepo "github.com/esgf-us/esg-bridge/internal/repository/globus"
	chiTransport "github.com/esgf-us/esg-bridge/internal/transport/chi"
	healthuc "github.com/esgf-us/esg-bridge/internal/usecase/health"
	searchuc "github.com/esgf-us/esg-bridge/internal/usecase/search"
	tokenuc "github.com/esgf-us/esg-bridge/internal/usecase/token"
	"github.com/esgf-us/esg-bridge/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esgbridge API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_index", cfg.Globus.SearchIndex),
		zap.Bool("token_refresh", cfg.Globus.ClientID != ""),
	)

	// Register bridge metrics explicitly (no init())
	metrics.RegisterBridgeMetrics()

	// Globus Search client with the forced response cache
	client := globusrepo.New(globusrepo.Config{
		SearchURL: cfg.Globus.SearchURL,
		AuthURL:   cfg.Globus.AuthURL,
		Timeout:   time.Duration(cfg.Globus.RequestTimeoutSec) * time.Second,
		CacheTTL:  time.Duration(cfg.Cache.TTLSec) * time.Second,
	})

	// Token refresh watchdog, the sole writer of the shared bearer token
	refresher := tokenuc.New(
		client, client,
		cfg.Globus.ClientID, cfg.Globus.ClientSecret,
		time.Duration(cfg.Globus.TokenRefreshIntervalSec)*time.Second,
		logger,
	)

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	var watchdogDone sync.WaitGroup
	watchdogDone.Add(1)
	go func() {
		defer watchdogDone.Done()
		refresher.Run(watchdogCtx)
	}()

	// Use case services
	searchSvc := searchuc.New(client, cfg.Globus.FacetSize)
	healthSvc := healthuc.New(refresher)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	stopWatchdog()
	watchdogDone.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"title":  "internal error",
						"detail": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
