// Package api provides the HTTP read API over stored readings.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/asthmaguardian/asthmaguardian/internal/api/handler"
	"github.com/asthmaguardian/asthmaguardian/internal/api/middleware"
	"github.com/asthmaguardian/asthmaguardian/internal/provider/resilience"
	"github.com/asthmaguardian/asthmaguardian/internal/store"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Store     store.Store
	Providers *resilience.Registry
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	airQualityHandler := handler.NewAirQualityHandler(cfg.Store)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	opsRateLimit := middleware.RateLimitByIP(middleware.OpsRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/air-quality", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", airQualityHandler.Current)
			r.Get("/history", airQualityHandler.History)
			r.Get("/day", airQualityHandler.Day)
		})

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.With(opsRateLimit).Get("/providers", opsHandler.Providers)
		})
	})

	return r
}
