package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"email-writer-backend/internal/handlers"
	"email-writer-backend/internal/middleware"
	"email-writer-backend/pkg/logging"
)

type Config struct {
	ReplyHandler   *handlers.ReplyHandler
	APIKeyAuth     *middleware.APIKeyAuth
	MetricsHandler http.Handler
	AllowedOrigins []string
	Logger         *logging.Logger
}

func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.APIKeyAuth.Middleware)

		// Plain-text contract used by the browser extension.
		r.Post("/email/generate", cfg.ReplyHandler.GenerateText)

		r.Route("/v1", func(r chi.Router) {
			r.Post("/replies", cfg.ReplyHandler.Generate)
		})
	})

	return r
}
