package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes of generate-report: callers (cron, CI) branch on these.
const (
	exitOK       = 0
	exitDegraded = 1
	exitFailure  = 2
)

var exitCode = exitOK

var rootCmd = &cobra.Command{
	Use:           "researchdigest",
	Short:         "Turns freshly ingested articles into a Markdown research report",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Same convention as the original script: local overrides live in
	// .env.local and never clobber real environment variables.
	_ = godotenv.Load(".env.local")

	if err := rootCmd.Execute(); err != nil {
		if exitCode == exitOK {
			exitCode = exitFailure
		}
	}
	os.Exit(exitCode)
}
