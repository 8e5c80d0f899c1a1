package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"researchdigest/internal/app"
	"researchdigest/internal/config"
	"researchdigest/internal/logging"
	"researchdigest/internal/usecase"
)

var (
	flagDate        string
	flagFeeds       []string
	flagWordBudget  int
	flagMaxAttempts int
	flagOutput      string
	flagBackend     string
)

var generateReportCmd = &cobra.Command{
	Use:   "generate-report",
	Short: "Fetch articles from the configured feeds and synthesize a report",
	RunE:  runGenerateReport,
}

func init() {
	flags := generateReportCmd.Flags()
	flags.StringVar(&flagDate, "date", time.Now().UTC().Format("2006-01-02"), "date label for the report")
	flags.StringSliceVar(&flagFeeds, "feeds", nil, "feed URLs (overrides config)")
	flags.IntVar(&flagWordBudget, "word-budget", 0, "word budget for the report body (default 1200)")
	flags.IntVar(&flagMaxAttempts, "max-attempts", 0, "maximum model invocations per run (default 3)")
	flags.StringVar(&flagOutput, "output", "", "report output path (default reports/report-<date>.md)")
	flags.StringVar(&flagBackend, "backend", "", "model backend: openai, anthropic or gemini")

	rootCmd.AddCommand(generateReportCmd)
}

func runGenerateReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if len(flagFeeds) > 0 {
		cfg.Feeds = flagFeeds
	}
	if flagWordBudget > 0 {
		cfg.Report.WordBudget = flagWordBudget
	}
	if flagMaxAttempts > 0 {
		cfg.Report.MaxAttempts = flagMaxAttempts
	}
	if flagBackend != "" {
		cfg.Backend.Provider = flagBackend
		if key := config.APIKeyFromEnv(flagBackend); key != "" {
			cfg.Backend.APIKey = key
		}
	}

	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger, flagOutput)
	if err != nil {
		exitCode = exitFailure
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	report, path, err := application.GenerateReport(ctx, flagDate)
	if err != nil {
		exitCode = exitFailure
		if errors.Is(err, usecase.ErrCancelled) {
			logger.Error("run cancelled before a report could be produced")
		} else {
			logger.Error("report generation failed", "error", err)
		}
		return err
	}

	if report.Degraded {
		exitCode = exitDegraded
		logger.Warn("report is degraded", "attempts", report.Attempts, "path", path)
		fmt.Fprintln(os.Stderr, "unresolved violations:")
		for _, v := range report.Unresolved {
			fmt.Fprintf(os.Stderr, "  - %s\n", v)
		}
		return nil
	}

	logger.Info("report generated", "attempts", report.Attempts, "path", path)
	return nil
}
