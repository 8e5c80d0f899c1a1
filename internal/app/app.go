package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/infrastructure/feed"
	"researchdigest/internal/infrastructure/llm"
	"researchdigest/internal/infrastructure/sink"
	"researchdigest/internal/infrastructure/storage"
	"researchdigest/internal/logging"
	"researchdigest/internal/normalize"
	"researchdigest/internal/ports"
	"researchdigest/internal/prompt"
	"researchdigest/internal/usecase"
	"researchdigest/internal/validate"
)

// ErrMissingCredentials marks a backend configured without an API key.
// This is the one configuration error that must fail the run outright.
var ErrMissingCredentials = errors.New("backend API key is not configured")

// Application wires config to the pipeline and owns shared resources.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance. outputPath overrides the
// date-based file convention when non-empty.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, outputPath string) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	backend, err := buildBackend(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}

	adapter := llm.NewAdapter(
		backend,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		cfg.Backend.MaxRetries,
		time.Duration(cfg.Backend.BackoffBaseMS)*time.Millisecond,
		baseLogger.With("component", "llm"),
	)

	source := feed.NewRSSSource(nil, cfg.Feeds, baseLogger.With("component", "feed"))

	var repository ports.ReportRepository
	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	var reportSink ports.ReportSink
	if outputPath != "" {
		reportSink = sink.NewFileSinkAt(outputPath)
	} else {
		reportSink = sink.NewFileSink(cfg.Report.OutputDir)
	}

	synthesizer := usecase.NewSynthesizer(usecase.SynthesizerDeps{
		Completer: adapter,
		Assembler: prompt.New(),
		Validator: validate.New(cfg.Report.WordBudget, cfg.Report.WordTolerance),
		Logger:    baseLogger.With("component", "synthesizer"),
	}, cfg.Report.MaxAttempts, time.Duration(cfg.Report.OverallTimeoutSeconds)*time.Second)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Repository:  repository,
		Normalizer:  normalize.New(cfg.Report.MaxArticles, cfg.Report.MaxExcerptChars),
		Synthesizer: synthesizer,
		Sink:        reportSink,
		Logger:      baseLogger.With("component", "pipeline"),
	}, cfg.Report.WordBudget)

	return &Application{cfg: cfg, pipeline: pipeline, db: db}, nil
}

// GenerateReport runs one synthesis for the given date label.
func (a *Application) GenerateReport(ctx context.Context, dateLabel string) (domain.Report, string, error) {
	return a.pipeline.GenerateReport(ctx, dateLabel)
}

// Close releases shared resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func buildBackend(ctx context.Context, cfg config.BackendConfig) (llm.Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w (provider %s)", ErrMissingCredentials, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicBackend(cfg.APIKey, cfg.Model), nil
	case config.ProviderGemini:
		return llm.NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI, "":
		return llm.NewOpenAIBackend(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}
