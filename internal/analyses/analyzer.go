package analyses

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/telemetry"
)

// Analyzer compares a résumé with a job description through three model calls.
type Analyzer struct {
	client   llm.Client
	settings Settings
}

// NewAnalyzer validates settings and binds them to client.
func NewAnalyzer(client llm.Client, settings Settings) (*Analyzer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, &apperr.ConfigurationError{Key: "LLM_PROVIDER", Message: "no client configured"}
	}
	return &Analyzer{client: client, settings: settings}, nil
}

// Settings returns the analyzer's configuration.
func (a *Analyzer) Settings() Settings {
	return a.settings
}

// Analyze runs the score, skills and recommendations steps and merges their replies.
// Any step failure aborts the call; no partial result is returned.
func (a *Analyzer) Analyze(ctx context.Context, in AnalysisInput) (AnalysisResult, error) {
	if strings.TrimSpace(in.JobText) == "" {
		return AnalysisResult{}, &apperr.ValidationError{Field: "job_description"}
	}
	if strings.TrimSpace(in.ResumeText) == "" {
		return AnalysisResult{}, &apperr.ValidationError{Field: "resume"}
	}

	if a.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.settings.Timeout)
		defer cancel()
	}

	start := time.Now()
	metrics.IncAnalysisStarted()
	result, err := a.run(ctx, in)
	elapsed := time.Since(start)
	metrics.ObserveAnalysisDurationMs(float64(elapsed.Milliseconds()))

	fields := map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"provider":    a.settings.Provider,
		"model":       a.settings.Model,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		metrics.IncAnalysisFailed()
		fields["error_code"] = apperr.Code(err)
		fields["error"] = err.Error()
		telemetry.Error("analysis.failed", fields)
		return AnalysisResult{}, err
	}
	metrics.IncAnalysisCompleted()
	fields["similarity_score"] = result.SimilarityScore
	telemetry.Info("analysis.completed", fields)
	return result, nil
}

func (a *Analyzer) run(ctx context.Context, in AnalysisInput) (AnalysisResult, error) {
	var (
		score  ScoreResult
		skills SkillsResult
	)
	if a.settings.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			score, err = a.scoreStep(gctx, in)
			return err
		})
		g.Go(func() error {
			var err error
			skills, err = a.skillsStep(gctx, in)
			return err
		})
		if err := g.Wait(); err != nil {
			return AnalysisResult{}, err
		}
	} else {
		var err error
		if score, err = a.scoreStep(ctx, in); err != nil {
			return AnalysisResult{}, err
		}
		if skills, err = a.skillsStep(ctx, in); err != nil {
			return AnalysisResult{}, err
		}
	}

	recs, err := runStep(ctx, a.client, llm.Request{
		Step:        StepRecommendations,
		System:      recommendationsSystem,
		Prompt:      buildRecommendationsPrompt(in.JobText, in.ResumeText, skills.MissingSkills),
		Temperature: recommendationsTemperature,
	}, parseRecommendations)
	if err != nil {
		return AnalysisResult{}, err
	}
	return mergeResult(score, skills, recs), nil
}

func (a *Analyzer) scoreStep(ctx context.Context, in AnalysisInput) (ScoreResult, error) {
	return runStep(ctx, a.client, llm.Request{
		Step:        StepScore,
		System:      scoreSystem,
		Prompt:      buildScorePrompt(in.JobText, in.ResumeText),
		Temperature: scoreTemperature,
	}, parseScore)
}

func (a *Analyzer) skillsStep(ctx context.Context, in AnalysisInput) (SkillsResult, error) {
	return runStep(ctx, a.client, llm.Request{
		Step:        StepSkills,
		System:      skillsSystem,
		Prompt:      buildSkillsPrompt(in.JobText, in.ResumeText),
		Temperature: skillsTemperature,
	}, parseSkills)
}

// runStep performs one remote call and parses its reply, classifying failures by step.
func runStep[T any](ctx context.Context, client llm.Client, req llm.Request, parse func([]byte) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	metrics.IncLLMCall(req.Step)

	raw, err := client.CompleteJSON(ctx, req)
	if err != nil {
		metrics.IncLLMCallFailed(req.Step)
		return zero, classifyStepError(ctx, req.Step, err)
	}
	out, err := parse(raw)
	if err != nil {
		metrics.IncLLMCallFailed(req.Step)
		return zero, &apperr.RemoteCallError{Step: req.Step, Err: err}
	}

	telemetry.Info("analysis.step", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"step":        req.Step,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func classifyStepError(ctx context.Context, step string, err error) error {
	var timeoutErr *apperr.TimeoutError
	if errors.As(err, &timeoutErr) {
		if timeoutErr.Step == "" {
			timeoutErr.Step = step
		}
		return timeoutErr
	}
	if apperr.IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apperr.TimeoutError{Op: "llm call", Step: step, Err: err}
	}
	return &apperr.RemoteCallError{Step: step, Err: err}
}
