package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/bootstrap"
	"resume-matcher/internal/extract"
)

// newAnalyzer is replaced in tests to avoid real model calls.
var newAnalyzer = bootstrap.NewAnalyzer

type analyzeOptions struct {
	job    string
	resume string
	out    string
	quiet  bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a résumé against a job description",
		Long:  "Runs the score, skills and recommendations steps. --job and --resume accept a file path (pdf, docx, txt) or literal text.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.job, "job", "j", "", "Job description file or text (required)")
	cmd.Flags().StringVarP(&opts.resume, "resume", "r", "", "Résumé file or text (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", analyses.DefaultResultFile, "Path of the JSON result file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Skip the text report")

	if err := cmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}
	if err := cmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := loadConfig()
	ex := extract.New(cfg.ExtractTimeout)

	jobText, err := resolveInput(ctx, ex, opts.job)
	if err != nil {
		return fmt.Errorf("job description: %w", err)
	}
	resumeText, err := resolveInput(ctx, ex, opts.resume)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := analyzer.Analyze(ctx, analyses.AnalysisInput{JobText: jobText, ResumeText: resumeText})
	if err != nil {
		return err
	}

	if !opts.quiet {
		if err := analyses.PrintReport(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	if opts.out != "" {
		if err := analyses.SaveResult(opts.out, result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to %s\n", opts.out)
	}
	return nil
}

// resolveInput extracts arg when it names an existing file and otherwise treats it as literal text.
func resolveInput(ctx context.Context, ex *extract.Extractor, arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		return ex.Extract(ctx, arg, "")
	}
	return arg, nil
}
