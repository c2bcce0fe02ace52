// Package research orchestrates a full research run: topic scoping, persona
// generation, concurrent interview rounds, and outline refinement until the
// structure stabilizes or the round budget runs out.
package research

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/interview"
	"research-backend/internal/llm"
	"research-backend/internal/metrics"
	"research-backend/internal/prompts"
	"research-backend/internal/store"
)

// Scoper validates the raw topic and drafts the pre-research outline.
// Satisfied by scope.LLMScoper.
type Scoper interface {
	Scope(ctx context.Context, raw string) (domain.Topic, error)
	InitialOutline(ctx context.Context, topic domain.Topic) (domain.Outline, error)
}

// PersonaGenerator produces the editorial team for one round. Satisfied by
// personas.Generator.
type PersonaGenerator interface {
	Generate(ctx context.Context, topic domain.Topic, hints []string) ([]domain.Persona, error)
}

// OutlineRefiner folds interview evidence into the outline. Satisfied by
// outline.Refiner.
type OutlineRefiner interface {
	Refine(ctx context.Context, topic domain.Topic, current domain.Outline, transcripts []domain.Transcript) (domain.Outline, error)
}

// Writer consumes a finished run downstream of the engine, turning it into
// prose or a rendered report. At hand-off the citation indices are dense,
// 1..N in order, with no gaps.
type Writer interface {
	Write(ctx context.Context, result *domain.Result) error
}

// Config bounds one research run.
type Config struct {
	MaxRounds             int           // interview+refinement cycles
	MaxParallelInterviews int           // concurrent sessions per round, <=0 means all at once
	RoundBudget           time.Duration // wall clock per round, 0 disables
	Interview             interview.Config
}

// DefaultConfig returns the run bounds used when the config file does not
// override them.
func DefaultConfig() Config {
	return Config{
		MaxRounds:             3,
		MaxParallelInterviews: 3,
		RoundBudget:           6 * time.Minute,
		Interview:             interview.DefaultConfig(),
	}
}

// Deps wires the engine's collaborators. Writer is optional; everything
// else is required.
type Deps struct {
	Scoper   Scoper
	Personas PersonaGenerator
	Refiner  OutlineRefiner
	Client   llm.Client      // drives the editor side of each session
	Expert   interview.Expert
	Writer   Writer
	Metrics  *metrics.Collector
	Logger   *zap.Logger
}

// Engine runs research invocations. One Engine serves any number of
// concurrent runs; per-run state lives in the runState it creates.
type Engine struct {
	scoper    Scoper
	generator PersonaGenerator
	refiner   OutlineRefiner
	client    llm.Client
	expert    interview.Expert
	writer    Writer
	config    Config
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewEngine builds an Engine.
func NewEngine(deps Deps, config Config) *Engine {
	return &Engine{
		scoper:    deps.Scoper,
		generator: deps.Personas,
		refiner:   deps.Refiner,
		client:    deps.Client,
		expert:    deps.Expert,
		writer:    deps.Writer,
		config:    config,
		collector: deps.Metrics,
		tracer:    otel.Tracer("research.engine"),
		logger:    deps.Logger.Named("engine"),
	}
}

// runState is the mutable state of one research invocation. It is owned by
// a single Run call and never escapes it; the shared reference store inside
// it is the only piece sessions touch concurrently.
type runState struct {
	topic       domain.Topic
	refs        *store.ReferenceStore
	outline     domain.Outline
	round       int
	personas    []domain.Persona
	transcripts []domain.Transcript
}

// Run executes one research invocation end to end. The caller receives
// either a complete Result, possibly assembled from degraded inputs, or a
// typed error naming why research never started.
func (e *Engine) Run(ctx context.Context, rawTopic string) (*domain.Result, error) {
	started := time.Now()
	e.collector.RunsStarted.Inc()

	ctx, span := e.tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(attribute.String("topic.raw", rawTopic)),
	)
	defer span.End()

	topic, err := e.scoper.Scope(ctx, rawTopic)
	if err != nil {
		e.collector.RunsAborted.Inc()
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("topic.title", topic.Title))

	outline, err := e.scoper.InitialOutline(ctx, topic)
	if err != nil {
		e.collector.RunsAborted.Inc()
		span.RecordError(err)
		return nil, err
	}

	team, err := e.generator.Generate(ctx, topic, topic.Related)
	if err != nil {
		e.collector.RunsAborted.Inc()
		span.RecordError(err)
		return nil, err
	}

	state := &runState{
		topic:    topic,
		refs:     store.NewReferenceStore(),
		outline:  outline,
		personas: team,
	}

	converged := false
	for state.round < e.config.MaxRounds {
		state.round++
		e.logger.Info("starting research round",
			zap.String("topic", topic.Title),
			zap.Int("round", state.round),
			zap.Int("personas", len(state.personas)),
		)

		roundTranscripts := e.runRound(ctx, state)
		state.transcripts = append(state.transcripts, roundTranscripts...)

		next, err := e.refiner.Refine(ctx, topic, state.outline, roundTranscripts)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		if next.StructurallyEqual(state.outline) {
			// Keep the refined version anyway: equal structure can still
			// carry improved summaries.
			state.outline = next
			converged = true
			break
		}
		state.outline = next

		if state.round == e.config.MaxRounds {
			break
		}

		fresh, err := e.generator.Generate(ctx, topic, state.outline.SectionTitles())
		if err != nil {
			if ctx.Err() != nil {
				span.RecordError(err)
				return nil, ctx.Err()
			}
			e.logger.Warn("persona regeneration failed, accepting current outline",
				zap.Int("round", state.round),
				zap.Error(err),
			)
			break
		}
		state.personas = fresh
	}

	result := &domain.Result{
		Topic:       topic,
		Outline:     state.outline,
		Citations:   state.refs.All(),
		Transcripts: state.transcripts,
		Rounds:      state.round,
		Converged:   converged,
	}

	e.collector.RecordRunCompleted(result.Rounds, len(result.Citations), time.Since(started))
	span.SetAttributes(
		attribute.Int("run.rounds", result.Rounds),
		attribute.Bool("run.converged", result.Converged),
		attribute.Int("run.citations", len(result.Citations)),
	)
	e.logger.Info("research run finished",
		zap.String("topic", topic.Title),
		zap.Int("rounds", result.Rounds),
		zap.Bool("converged", result.Converged),
		zap.Int("citations", len(result.Citations)),
		zap.Duration("took", time.Since(started)),
	)

	if e.writer != nil {
		if err := e.writer.Write(ctx, result); err != nil {
			e.logger.Warn("downstream writer failed", zap.Error(err))
		}
	}
	return result, nil
}

// runRound interviews every current persona concurrently, bounded by the
// parallelism cap and the round budget, and returns the transcripts that
// produced at least one exchange. One degraded session never discards the
// others' work.
func (e *Engine) runRound(ctx context.Context, state *runState) []domain.Transcript {
	ctx, span := e.tracer.Start(ctx, "engine.runRound",
		trace.WithAttributes(attribute.Int("round", state.round)),
	)
	defer span.End()

	if e.config.RoundBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.RoundBudget)
		defer cancel()
	}

	outlineContext := prompts.RenderOutline(state.outline)

	parallel := e.config.MaxParallelInterviews
	if parallel <= 0 {
		parallel = len(state.personas)
	}
	sem := make(chan struct{}, parallel)

	results := make([]domain.Transcript, len(state.personas))
	errs := make([]error, len(state.personas))

	var wg sync.WaitGroup
	for i, p := range state.personas {
		wg.Add(1)
		go func(i int, p domain.Persona) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			began := time.Now()
			session := interview.NewSession(interview.Params{
				Client:  e.client,
				Expert:  e.expert,
				Refs:    state.refs,
				Config:  e.config.Interview,
				Logger:  e.logger,
				Topic:   state.topic,
				Persona: p,
				Outline: outlineContext,
			})
			tr, err := session.Run(ctx)
			e.collector.RecordInterview(len(tr.Turns), time.Since(began))
			results[i], errs[i] = tr, err
		}(i, p)
	}
	wg.Wait()

	transcripts := make([]domain.Transcript, 0, len(state.personas))
	for i := range results {
		if errs[i] != nil {
			e.logger.Warn("interview discarded",
				zap.Int("round", state.round),
				zap.String("persona", state.personas[i].Name),
				zap.Error(errs[i]),
			)
			continue
		}
		transcripts = append(transcripts, results[i])
	}
	span.SetAttributes(attribute.Int("round.transcripts", len(transcripts)))
	return transcripts
}
