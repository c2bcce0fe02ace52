// Package di provides dependency injection using Google Wire.
// This file groups the provider functions into logical sets; the manual
// container in container.go calls the same providers in dependency order.
package di

import (
	"net/http"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"research-backend/internal/config"
	"research-backend/internal/expert"
	"research-backend/internal/interfaces/rest"
	"research-backend/internal/interview"
	"research-backend/internal/llm"
	"research-backend/internal/metrics"
	"research-backend/internal/outline"
	"research-backend/internal/personas"
	"research-backend/internal/research"
	"research-backend/internal/scope"
	"research-backend/internal/search"
	"research-backend/pkg/observability"
)

// metricsNamespace prefixes every metric the service exports.
const metricsNamespace = "research"

// runRetention is how long finished runs stay queryable over the API.
const runRetention = 24 * time.Hour

// ============================================================================
// PROVIDER SETS
// ============================================================================

// SuperSet combines all provider sets for the complete application.
var SuperSet = wire.NewSet(
	ObservabilityProviders,
	ClientProviders,
	ResearchProviders,
	InterfaceProviders,
)

// ObservabilityProviders provides logging, metrics, and tracing.
var ObservabilityProviders = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracerProvider,
)

// ClientProviders provides the outbound clients the pipeline talks through.
var ClientProviders = wire.NewSet(
	ProvideLLMClient,
	ProvideSearchGateway,
)

// ResearchProviders provides the research pipeline components.
var ResearchProviders = wire.NewSet(
	ProvideScoper,
	ProvidePersonaGenerator,
	ProvideRefiner,
	ProvideExpert,
	ProvideWriter,
	ProvideEngine,
)

// InterfaceProviders provides the HTTP layer.
var InterfaceProviders = wire.NewSet(
	ProvideRunRegistry,
	ProvideRouter,
)

// ============================================================================
// PROVIDERS
// ============================================================================

// ProvideLogger constructs the process logger. The returned level handle can
// be adjusted at runtime, which the config watcher uses for live log-level
// changes.
func ProvideLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	return observability.NewLogger(observability.LoggerOptions{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// ProvideMetrics constructs the Prometheus collector with its own registry.
func ProvideMetrics() *metrics.Collector {
	return metrics.NewCollector(metricsNamespace)
}

// ProvideTracerProvider constructs the OTLP tracer provider.
func ProvideTracerProvider(cfg *config.Config) (*observability.TracerProvider, error) {
	return observability.InitTracing(observability.TracingOptions{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
}

// ProvideLLMClient constructs the chat-completion client with retry around it.
func ProvideLLMClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	base, err := llm.NewOpenAIClient(llm.OpenAIOptions{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout.Std(),
	})
	if err != nil {
		return nil, err
	}

	return llm.NewRetryClient(base, llm.RetryConfig{
		MaxRetries:    cfg.LLM.Retry.MaxRetries,
		InitialDelay:  cfg.LLM.Retry.InitialDelay.Std(),
		MaxDelay:      cfg.LLM.Retry.MaxDelay.Std(),
		BackoffFactor: cfg.LLM.Retry.BackoffFactor,
		JitterFactor:  cfg.LLM.Retry.JitterFactor,
	}, logger), nil
}

// ProvideSearchGateway constructs the retrieval gateway over the HTTP search
// provider, with retry and a circuit breaker around it.
func ProvideSearchGateway(cfg *config.Config, logger *zap.Logger) (*search.Gateway, error) {
	provider, err := search.NewHTTPProvider(search.HTTPProviderOptions{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Timeout: cfg.Search.Timeout.Std(),
	})
	if err != nil {
		return nil, err
	}

	return search.NewGateway(provider, search.GatewayConfig{
		MaxResults:    cfg.Search.MaxResults,
		Timeout:       cfg.Search.Timeout.Std(),
		MaxRetries:    cfg.Search.Retry.MaxRetries,
		InitialDelay:  cfg.Search.Retry.InitialDelay.Std(),
		MaxDelay:      cfg.Search.Retry.MaxDelay.Std(),
		BackoffFactor: cfg.Search.Retry.BackoffFactor,
		JitterFactor:  cfg.Search.Retry.JitterFactor,
		Breaker: search.BreakerConfig{
			FailureThreshold: cfg.Search.Breaker.FailureThreshold,
			MinRequests:      cfg.Search.Breaker.MinRequests,
			OpenDuration:     cfg.Search.Breaker.OpenDuration.Std(),
			HalfOpenRequests: cfg.Search.Breaker.HalfOpenRequests,
			Interval:         cfg.Search.Breaker.Interval.Std(),
		},
	}, logger), nil
}

// ProvideScoper constructs the topic scoper.
func ProvideScoper(client llm.Client, logger *zap.Logger) *scope.LLMScoper {
	return scope.NewLLMScoper(client, logger)
}

// ProvidePersonaGenerator constructs the editorial team generator.
func ProvidePersonaGenerator(cfg *config.Config, client llm.Client, logger *zap.Logger) *personas.Generator {
	return personas.NewGenerator(client, personas.Config{
		Count:      cfg.Research.PersonaCount,
		MaxRetries: cfg.Research.PersonaRetries,
	}, logger)
}

// ProvideRefiner constructs the outline refiner.
func ProvideRefiner(client llm.Client, logger *zap.Logger) *outline.Refiner {
	return outline.NewRefiner(client, logger)
}

// ProvideExpert constructs the grounded interview responder.
func ProvideExpert(cfg *config.Config, gateway *search.Gateway, client llm.Client, logger *zap.Logger) *expert.Responder {
	return expert.NewResponder(gateway, client, expert.Config{
		MaxSnippets: cfg.Research.MaxSnippets,
	}, logger)
}

// ProvideWriter returns the downstream report writer for the API process.
// The HTTP service renders reports on request, so no writer is attached.
func ProvideWriter() research.Writer {
	return nil
}

// ProvideEngine assembles the research engine from its collaborators. The
// writer is optional; the HTTP service passes nil and renders reports on
// request instead.
func ProvideEngine(
	cfg *config.Config,
	scoper *scope.LLMScoper,
	generator *personas.Generator,
	refiner *outline.Refiner,
	client llm.Client,
	responder *expert.Responder,
	writer research.Writer,
	collector *metrics.Collector,
	logger *zap.Logger,
) *research.Engine {
	return research.NewEngine(research.Deps{
		Scoper:   scoper,
		Personas: generator,
		Refiner:  refiner,
		Client:   client,
		Expert:   responder,
		Writer:   writer,
		Metrics:  collector,
		Logger:   logger,
	}, research.Config{
		MaxRounds:             cfg.Research.MaxRounds,
		MaxParallelInterviews: cfg.Research.MaxParallelInterviews,
		RoundBudget:           cfg.Research.RoundBudget.Std(),
		Interview: interview.Config{
			MaxTurns:      cfg.Research.MaxTurns,
			SessionBudget: cfg.Research.SessionBudget.Std(),
		},
	})
}

// ProvideRunRegistry constructs the in-memory run registry.
func ProvideRunRegistry(logger *zap.Logger) *rest.Registry {
	return rest.NewRegistry(runRetention, logger)
}

// ProvideRouter assembles the HTTP handler tree.
func ProvideRouter(
	cfg *config.Config,
	engine *research.Engine,
	registry *rest.Registry,
	collector *metrics.Collector,
	logger *zap.Logger,
) http.Handler {
	handler := rest.NewHandler(engine, registry, logger)
	return rest.NewRouter(handler, collector, cfg, logger).Setup()
}
