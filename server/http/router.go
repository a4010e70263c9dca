package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"image-recon/internal/metrics"
	"image-recon/internal/middleware"
	recHnd "image-recon/internal/reconcile/handler"
	"image-recon/internal/reconcile/service"
)

// NewRouter: сервер инспекции индекса, только чтение.
func NewRouter(idx *service.Index, gatherer prometheus.Gatherer, rec *metrics.Recorder, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))

	r.Get("/health", recHnd.Health)
	r.Get("/index", recHnd.IndexStats(idx))
	match := recHnd.Match(idx, rec, logger)
	r.Get("/match", match)
	r.Post("/match", match)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
