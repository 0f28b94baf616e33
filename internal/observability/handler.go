package observability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler serves /metrics and /healthz, logging and counting every request.
func Handler(logger zerolog.Logger) http.Handler {
	RegisterMetrics()
	r := chi.NewRouter()
	r.Use(RequestLogger(logger), RequestMetricsMiddleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
