// Package main implements the analyzer CLI: score a résumé against a job description from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-matcher/internal/shared/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "analyzer",
		Short:         "Résumé and job description analyzer",
		Long:          "Scores a résumé against a job description with a language model and reports strengths, skill gaps and recommendations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newExtractCmd())
	return root
}

func main() {
	// config.Load reads .env files before the environment is consulted.
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var loadConfig = config.Load
