package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/delivery/http/handler"
	"github.com/user/profile-extractor/internal/delivery/http/middleware"
)

const requestTimeout = 60 * time.Second

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	// The analysis stream lives as long as the run and is bounded by the
	// run's own timeouts instead.
	r.Post("/api/analyze", h.HandleAnalyze)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		r.Get("/api/health", h.HandleHealthCheck)
		r.Get("/api/profiles/{key}", h.HandleGetProfile)
		r.Get("/api/runs/{runID}/events", h.HandleRunEvents)
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}
