package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quix-it/entity-api/internal/api"
	apiMiddleware "github.com/quix-it/entity-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metricsMiddleware := apiMiddleware.NewMetricsMiddleware(registry)
	r.Use(metricsMiddleware.Instrument)

	entityHandler := api.NewEntityHandler(app.entityService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenService)

	// All entity routes require a valid bearer credential
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/entities", entityHandler.CreateEntity)
		r.Get("/entities", entityHandler.ListEntities)
		r.Get("/entities/{id}", entityHandler.GetEntity)
		r.Put("/entities/{id}", entityHandler.UpdateEntity)
		r.Delete("/entities/{id}", entityHandler.DeleteEntity)
	})

	// Public probes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
