//go:build !wireinject
// +build !wireinject

// Package di provides a centralized dependency injection container.
package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"research-backend/internal/config"
)

// NewContainer creates and initializes a new dependency injection container.
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:            cfg,
		shutdownFunctions: make([]func() error, 0),
	}

	if err := container.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	return container, nil
}

// initialize sets up all dependencies in the correct order.
func (c *Container) initialize() error {
	// 1. Logger
	logger, level, err := ProvideLogger(c.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.Logger = logger
	c.LogLevel = level
	c.addShutdownFunction(func() error {
		// Sync flushes buffered entries; its error is expected on stderr.
		_ = logger.Sync()
		return nil
	})

	// 2. Metrics
	c.Metrics = ProvideMetrics()

	// 3. Tracing if enabled. A failing exporter should not block startup.
	if err := c.initializeTracing(); err != nil {
		c.Logger.Warn("tracing initialization failed", zap.Error(err))
	}

	// 4. Research pipeline
	if err := c.initializeEngine(); err != nil {
		return fmt.Errorf("failed to initialize research engine: %w", err)
	}

	// 5. HTTP router
	registry := ProvideRunRegistry(c.Logger)
	c.Router = ProvideRouter(c.Config, c.Engine, registry, c.Metrics, c.Logger)

	c.Logger.Info("dependency injection container initialized",
		zap.String("environment", string(c.Config.Environment)),
		zap.Strings("config_sources", c.Config.LoadedFrom),
	)
	return nil
}

func (c *Container) initializeTracing() error {
	if !c.Config.Tracing.Enabled {
		return nil
	}

	provider, err := ProvideTracerProvider(c.Config)
	if err != nil {
		return err
	}
	c.TracerProvider = provider
	c.addShutdownFunction(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return provider.Shutdown(ctx)
	})
	c.Logger.Info("tracing initialized",
		zap.String("endpoint", c.Config.Tracing.Endpoint),
		zap.Float64("sample_rate", c.Config.Tracing.SampleRate),
	)
	return nil
}

func (c *Container) initializeEngine() error {
	client, err := ProvideLLMClient(c.Config, c.Logger)
	if err != nil {
		return err
	}

	gateway, err := ProvideSearchGateway(c.Config, c.Logger)
	if err != nil {
		return err
	}

	scoper := ProvideScoper(client, c.Logger)
	generator := ProvidePersonaGenerator(c.Config, client, c.Logger)
	refiner := ProvideRefiner(client, c.Logger)
	responder := ProvideExpert(c.Config, gateway, client, c.Logger)

	c.Engine = ProvideEngine(c.Config, scoper, generator, refiner, client, responder, ProvideWriter(), c.Metrics, c.Logger)
	return nil
}

// addShutdownFunction adds a function to be called during container shutdown.
func (c *Container) addShutdownFunction(fn func() error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// AddShutdownFunction registers an external resource to be closed when the
// container shuts down.
func (c *Container) AddShutdownFunction(fn func() error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// Shutdown gracefully shuts down all container components in reverse
// initialization order.
func (c *Container) Shutdown(ctx context.Context) error {
	var failed int

	for i := len(c.shutdownFunctions) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.shutdownFunctions[i](); err != nil {
			failed++
			c.Logger.Error("shutdown step failed", zap.Error(err))
		}
	}
	c.shutdownFunctions = nil

	if failed > 0 {
		return fmt.Errorf("shutdown completed with %d errors", failed)
	}
	return nil
}
