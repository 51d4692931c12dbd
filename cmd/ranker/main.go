// Package main is the operator CLI for the résumé ranker. It shares the
// store and services of the API server and is meant for bulk ingestion and
// ad hoc rankings.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"alfredoptarigan/resume-ranker/internal/bootstrap"
	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ranker",
	Short: "Ingest résumés and rank candidates against a job description",
	Long: `ranker works on the same candidate store as the API server. Use
"ingest" to extract and store résumé PDFs in bulk and "rank" to score every
stored candidate against a job description.

Settings come from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if tier, _ := cmd.Flags().GetString("tier"); tier != "" {
			cfg.Ranking.Tier = tier
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().String("tier", "", "scoring tier override: lexical or semantic")
	rootCmd.PersistentFlags().Bool("verbose", false, "also log info and debug messages")
}

// newContainer wires services for one command invocation.
func newContainer(cmd *cobra.Command) (*bootstrap.Container, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return bootstrap.NewContainer(commandContext(cmd), cfg, logger.NewConsoleLogger(logLevel(verbose)))
}

// logLevel keeps warnings such as skipped store rows visible by default.
func logLevel(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.WarnLevel
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
