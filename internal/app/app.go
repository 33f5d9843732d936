package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/guttosm/monthlypulse/config"
	"github.com/guttosm/monthlypulse/internal/api"
	"github.com/guttosm/monthlypulse/internal/service"
	"github.com/guttosm/monthlypulse/internal/storage"
)

// artifactReader is an indirection for the API's data source; tests can override this.
var artifactReader = func() service.ArtifactReader {
	return storage.NewCSVStore()
}

// InitializeApp sets up the read API over the last persisted pipeline artifact and
// returns a configured Gin router and a cleanup function for graceful shutdown.
//
// Responsibilities:
//   - Builds the service layer over the CSV artifact at Pipeline.OutputPath.
//   - Creates the HTTP handler layer and the router with all API routes.
//   - Registers a Prometheus registry (Go and process collectors plus HTTP metrics) on /metrics.
//   - Registers health and readiness probes; readiness requires a readable artifact.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	svc := service.NewMonthlyService(artifactReader(), cfg.Pipeline.OutputPath)
	handler := api.NewHandler(svc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(handler, api.RouterOptions{
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Registry:           reg,
	})

	api.NewHealthHandler(svc.Ready).Register(router)

	cleanup := func() {}
	return router, cleanup, nil
}
