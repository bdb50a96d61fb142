package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/readyhire/internal"
	"github.com/DukeRupert/readyhire/internal/handler"
	"github.com/DukeRupert/readyhire/internal/metrics"
	"github.com/DukeRupert/readyhire/internal/middleware"
)

func run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize AI provider
	provider, err := internal.NewProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("provider initialization failed: %w", err)
	}

	// Billing is optional; its routes answer 501 without a secret key
	billingService := internal.NewBilling(cfg)
	if billingService == nil {
		logger.Warn("STRIPE_SECRET_KEY not set, billing routes disabled")
	}

	// Initialize middleware
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go limiter.Run(ctx)

	rateLimit := middleware.NewRateLimitMiddleware(limiter, logger)
	cors := middleware.CORS(cfg.CORSOrigin)
	apiRoute := func(next http.Handler) http.Handler {
		return cors(rateLimit.Limit(next))
	}

	// Initialize handlers
	apiHandler := handler.NewAPIHandler(provider, billingService, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, logger)
	healthHandler := handler.NewHealthHandler(cfg.AIProvider, cfg.BillingEnabled(), time.Now())

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	healthHandler.RegisterRoutes(mux)
	apiHandler.RegisterRoutes(mux, apiRoute)
	webhookHandler.RegisterRoutes(mux)

	metricsAuth := middleware.BasicAuth("metrics", cfg.MetricsUsername, cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth(promhttp.Handler()))
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("metrics endpoint is unprotected")
	}

	var h http.Handler = mux
	h = middleware.APIHeaders(cfg.IsProduction())(h)
	h = middleware.NewRequestLoggingMiddleware(logger).Handler(h)
	h = metrics.Middleware(h)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.AIRequestTimeout + 15*time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "provider", cfg.AIProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")
	stop()

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
