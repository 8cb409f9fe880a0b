// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/retailsight/internal/config"
	"github.com/tomtom215/retailsight/internal/middleware"
)

// slowRequestThreshold marks requests logged as slow.
const slowRequestThreshold = 2 * time.Second

// Router wires handlers and middleware into a chi.Mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	static        http.Handler
}

// NewRouter creates a router. Static files come from cfg.Server.StaticDir.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	var sec *config.SecurityConfig
	staticDir := "public"
	if cfg != nil {
		sec = &cfg.Security
		if cfg.Server.StaticDir != "" {
			staticDir = cfg.Server.StaticDir
		}
	}

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(sec)),
		static:        NewStaticHandler(staticDir),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api", func(r chi.Router) {
		router.registerHealthRoutes(r)
		router.registerDataRoutes(r)
	})

	// Unprefixed aliases kept for the original front-end.
	r.Group(func(r chi.Router) {
		router.registerDataRoutes(r)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Must be last - catches all unmatched routes
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))
		r.Handle("/*", router.static)
	})

	return r
}

func (router *Router) registerHealthRoutes(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
}

func (router *Router) registerDataRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("data"))
		r.Use(APISecurityHeaders())

		r.With(chimiddleware.Compress(5)).Get("/household/{hshdNum}", router.handler.Household)
		r.With(chimiddleware.Compress(5)).Get("/dashboard", router.handler.Dashboard)
		r.Post("/upload", router.handler.Upload)
		r.Post("/upload/{table}", router.handler.UploadTable)
	})
}
