// Package di provides types for dependency injection.
// This file contains shared types that are used by both Wire and the manual container.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"research-backend/internal/config"
	"research-backend/internal/metrics"
	"research-backend/internal/research"
	"research-backend/pkg/observability"
)

// Container holds every long-lived component of the service.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	LogLevel       zap.AtomicLevel
	Metrics        *metrics.Collector
	TracerProvider *observability.TracerProvider
	Engine         *research.Engine
	Router         http.Handler

	shutdownFunctions []func() error
}
