// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/traktsync/internal/config"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler *Handler
	auth    *Authenticator
	chiMW   *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, authn *Authenticator, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authn, chiMW: chiMW}
}

// Setup builds the HTTP handler.
func (rt *Router) Setup() http.Handler {
	h := rt.handler
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(rt.chiMW.CORS())

	r.Get("/api/v1/health/live", h.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/trakt", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimit())
		r.Use(PrometheusMetrics)

		// Reached by the browser redirect from Trakt; the state binds it
		// to a user.
		r.Get("/auth/callback", h.AuthCallback)

		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Middleware)

			r.Post("/auth/init", h.AuthInit)
			r.Delete("/disconnect", h.Disconnect)

			r.Get("/config", h.GetConfig)
			r.Put("/config", h.UpdateConfig)

			r.Get("/sync/status", h.SyncStatus)
			r.Post("/sync/manual", h.ManualSync)
			r.Get("/sync/tasks/{taskID}", h.TaskResult)
			r.Get("/sync/history", h.SyncHistory)

			r.Get("/jobs", h.Jobs)
			r.Post("/jobs/pause", h.PauseJob)
			r.Post("/jobs/resume", h.ResumeJob)
		})
	})

	return r
}

// NewServer creates the HTTP server for handler.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * cfg.ReadTimeout,
	}
}
