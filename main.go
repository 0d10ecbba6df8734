package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectRoot string

func main() {
	rootCmd := &cobra.Command{
		Use:   "interview-coach",
		Short: "Mock interview coaching API",
		Long: `interview-coach serves the mock interview API: generated questions, scoring,
resume review, transcription and live behaviour tracking.

Commands:
  serve     Run the HTTP server (default)
  migrate   Create or update the database schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root containing config/ and logs/")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrate()
		},
	}
}
