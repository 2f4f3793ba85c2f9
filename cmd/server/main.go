package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"email-writer-backend/internal/config"
	"email-writer-backend/internal/handlers"
	"email-writer-backend/internal/middleware"
	"email-writer-backend/internal/observability/metrics"
	"email-writer-backend/internal/router"
	"email-writer-backend/internal/services"
	"email-writer-backend/pkg/logging"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting email writer backend", "env", cfg.Env, "port", cfg.Port)

	// ──── Step 2: Metrics Registry ────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	replyMetrics := metrics.NewReplyMetrics(reg)

	// ──── Step 3: Initialize Gemini Provider ────
	provider, closeProvider, err := services.NewProvider(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("gemini provider initialization failed", "error", err)
		os.Exit(1)
	}
	defer closeProvider()
	logger.Info("gemini provider initialized",
		"transport", provider.Name(),
		"model", provider.Model(),
		"timeout", cfg.GeminiTimeout.String(),
		"max_retries", cfg.GeminiMaxRetries,
	)

	// ──── Step 4: Services & Handlers ────
	replyService := services.NewReplyService(provider, replyMetrics, logger)
	replyHandler := handlers.NewReplyHandler(replyService, replyMetrics, logger)

	apiKeyAuth := middleware.NewAPIKeyAuth(cfg.ServiceAPIKey)
	if !apiKeyAuth.Enabled() {
		logger.Warn("SERVICE_API_KEY not set; /api routes are unauthenticated")
	}

	// ──── Step 5: Start HTTP Server ────
	r := router.New(router.Config{
		ReplyHandler:   replyHandler,
		APIKeyAuth:     apiKeyAuth,
		MetricsHandler: metrics.Handler(reg),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Must outlast a full provider call including retries.
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("email writer backend ready",
		"addr", fmt.Sprintf("http://localhost:%s", cfg.Port),
		"legacy_endpoint", "/api/email/generate",
		"v1_endpoint", "/api/v1/replies",
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeTimeout(cfg *config.Config) time.Duration {
	attempts := time.Duration(cfg.GeminiMaxRetries + 1)
	var backoff time.Duration
	for i := 1; i <= cfg.GeminiMaxRetries; i++ {
		backoff += time.Duration(i*i) * cfg.GeminiRetryBackoff * 3 / 2
	}
	return attempts*cfg.GeminiTimeout + backoff + 5*time.Second
}
