package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/api/handler"
	apimw "github.com/subwatch/reminder-dispatch/internal/api/middleware"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	runner handler.Runner,
	secret string,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	dh := handler.NewDispatchHandler(runner, secret, logger)

	r.Get("/health", dh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// The trigger route doubles as its own health probe on GET so the
	// external cron provider can verify the URL it is pointed at.
	r.Route("/api/notifications/dispatch", func(r chi.Router) {
		r.Get("/", dh.Health)
		r.Post("/", dh.Trigger)
	})

	return r
}
