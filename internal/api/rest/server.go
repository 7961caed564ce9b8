package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/config"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/database"
	"github.com/marketbay/auction-exchange-backend/internal/metrics"
)

// Server hosts the auction API over HTTP
type Server struct {
	config     *config.Config
	httpServer *http.Server
	logger     *slog.Logger
	pool       *database.ConnectionPool
}

// NewServer wires the handler, middleware stack and routes
func NewServer(cfg *config.Config, handler *Handler, auth *Authenticator, registry *metrics.Registry, pool *database.ConnectionPool, logger *slog.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		pool:   pool,
	}

	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/v1/auctions/{id}", handler.handleGetAuction)
	mux.HandleFunc("GET /api/v1/auctions/{id}/bids", handler.handleListBids)

	// Authenticated endpoints
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(h)
	}
	mux.Handle("POST /api/v1/auctions", authed(handler.handleCreateListing))
	mux.Handle("POST /api/v1/auctions/{id}/bids", authed(handler.handlePlaceBid))
	mux.Handle("PUT /api/v1/auctions/{id}/max-bid", authed(handler.handleSetMaxBid))
	mux.Handle("POST /api/v1/auctions/{id}/purchase", authed(handler.handleBuyNow))
	mux.Handle("GET /api/v1/orders", authed(handler.handleListOrders))

	limiter := newIPRateLimiter(
		cfg.Security.RateLimit.RequestsPerSecond,
		cfg.Security.RateLimit.BurstSize,
	)

	root := chain(mux,
		requestIDMiddleware,
		loggingMiddleware(registry),
		recoveryMiddleware,
		rateLimitMiddleware(limiter),
	)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.config.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pool.HealthCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "database unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
