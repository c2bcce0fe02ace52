//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"research-backend/internal/config"
)

// InitializeContainer builds the full dependency graph with Wire. The manual
// path in container.go stays the source of truth; this injector documents
// the same graph for wire's analysis.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	panic(wire.Build(
		SuperSet,
		wire.Struct(new(Container), "Config", "Logger", "LogLevel", "Metrics", "TracerProvider", "Engine", "Router"),
	))
}
