package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/dirtyfeed/api/handlers"
	"github.com/angelmondragon/dirtyfeed/api/middleware"
	"github.com/angelmondragon/dirtyfeed/internal/ledger"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
)

// Deps are the optional collaborators exposed on the ops surface.
type Deps struct {
	Gatherer prometheus.Gatherer
	Pingers  map[string]handlers.Pinger
	Ledger   ledger.Service
}

// NewRouter builds the ops router: health, readiness, metrics and, when the
// run ledger is enabled, pass lookups.
func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", handlers.Healthz(cfg, logg))
	r.Get("/readyz", handlers.Readyz(cfg, logg, deps.Pingers))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if deps.Ledger != nil {
		r.Route("/runs", func(r chi.Router) {
			r.Get("/passes/{passId}", handlers.PassRuns(deps.Ledger, logg))
			r.Get("/artifacts/{artifact}/latest", handlers.LastUpload(deps.Ledger, logg))
		})
	}

	return r
}
