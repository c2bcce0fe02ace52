// Command research runs one research pipeline from the terminal and writes
// the rendered report to a file or stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"research-backend/internal/config"
	"research-backend/internal/di"
	"research-backend/internal/export"
	"research-backend/internal/research"
	apperrors "research-backend/pkg/errors"
)

const (
	exitUsage   = 2
	exitAborted = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	topic := flag.String("topic", "", "topic to research")
	output := flag.String("output", "", "report destination, stdout when empty")
	format := flag.String("format", "markdown", "report format: markdown or html")
	flag.Parse()

	// Load .env for local development; a missing file is fine.
	_ = godotenv.Load()

	if strings.TrimSpace(*topic) == "" {
		fmt.Fprintln(os.Stderr, "a topic is required, e.g. -topic \"history of container shipping\"")
		flag.Usage()
		return exitUsage
	}

	reportFormat, ok := parseFormat(*format)
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported format %q, expected markdown or html\n", *format)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, _, err := di.ProvideLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	out := os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			return 1
		}
		defer file.Close()
		out = file
	}

	engine, err := buildEngine(cfg, export.NewReportWriter(out, reportFormat), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to assemble pipeline: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx, *topic)
	if err != nil {
		logger.Error("research failed", zap.Error(err))
		switch {
		case apperrors.IsValidation(err):
			return exitUsage
		case apperrors.IsAborted(err):
			return exitAborted
		default:
			return 1
		}
	}

	logger.Info("research finished",
		zap.String("topic", result.Topic.Title),
		zap.Int("rounds", result.Rounds),
		zap.Bool("converged", result.Converged),
		zap.Int("citations", len(result.Citations)),
	)
	return 0
}

// buildEngine assembles a single-run engine around the report writer.
func buildEngine(cfg *config.Config, writer research.Writer, logger *zap.Logger) (*research.Engine, error) {
	client, err := di.ProvideLLMClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	gateway, err := di.ProvideSearchGateway(cfg, logger)
	if err != nil {
		return nil, err
	}

	return di.ProvideEngine(
		cfg,
		di.ProvideScoper(client, logger),
		di.ProvidePersonaGenerator(cfg, client, logger),
		di.ProvideRefiner(client, logger),
		client,
		di.ProvideExpert(cfg, gateway, client, logger),
		writer,
		di.ProvideMetrics(),
		logger,
	), nil
}

func parseFormat(raw string) (export.Format, bool) {
	switch strings.ToLower(raw) {
	case "markdown", "md":
		return export.FormatMarkdown, true
	case "html":
		return export.FormatHTML, true
	default:
		return "", false
	}
}
