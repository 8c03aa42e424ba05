package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/whatsapp-bridge/internal/bridge"
	httpmiddleware "github.com/wolfman30/whatsapp-bridge/internal/http/middleware"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Bridge         *bridge.Handler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Bridge.Health)
	r.Post("/inbound", cfg.Bridge.Inbound)
	r.Post("/reply", cfg.Bridge.Reply)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
