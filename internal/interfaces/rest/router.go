package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"research-backend/internal/config"
	"research-backend/internal/metrics"
	"research-backend/internal/middleware"
	"research-backend/pkg/observability"
)

// Router creates and configures the HTTP router.
type Router struct {
	handler   *Handler
	collector *metrics.Collector
	cfg       *config.Config
	logger    *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(handler *Handler, collector *metrics.Collector, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{
		handler:   handler,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(rt.logger))
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.Tracing.Enabled {
		router.Use(observability.TracingMiddleware(rt.cfg.Tracing.ServiceName))
	}
	router.Use(metrics.Middleware(rt.collector))
	router.Use(middleware.Timeout(rt.cfg.Server.RequestTimeout.Std()))

	// CORS configuration
	if rt.cfg.CORS.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.cfg.CORS.AllowedOrigins,
			AllowedMethods: rt.cfg.CORS.AllowedMethods,
			AllowedHeaders: rt.cfg.CORS.AllowedHeaders,
			ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
			MaxAge:         rt.cfg.CORS.MaxAge,
		}))
	}

	// Health check and metrics
	router.Get("/health", rt.handler.Health)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		rt.collector.GetRegistry(),
		promhttp.HandlerOpts{},
	))

	// Research endpoints
	router.Route("/api/research", func(r chi.Router) {
		r.Post("/", rt.handler.CreateResearch)
		r.Get("/{runID}", rt.handler.GetResearch)
		r.Get("/{runID}/report", rt.handler.GetReport)
	})

	return router
}
