package analyses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-matcher/internal/extract"
	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/storage/object"
	"resume-matcher/internal/shared/telemetry"
)

const uploadsNamespace = "uploads"

// Source is one side of an analysis request: literal text or an uploaded file.
type Source struct {
	Text     string
	FileName string
	// Body, when set, takes precedence over Text.
	Body io.Reader
}

// Service runs analyses and keeps their records.
type Service struct {
	Repo      Repo
	Analyzer  *Analyzer
	Extractor *extract.Extractor
	// Store is optional; when set, uploads and exports are kept there.
	Store object.ObjectStore
}

// Create resolves both sources, runs the analysis and stores the outcome.
// Failures after validation are stored as failed records and returned alongside the error.
func (s *Service) Create(ctx context.Context, job, resume Source) (Analysis, error) {
	jobText, jobKey, err := s.resolve(ctx, "job_description", job)
	if err != nil {
		return Analysis{}, err
	}
	resumeText, resumeKey, err := s.resolve(ctx, "resume", resume)
	if err != nil {
		return Analysis{}, err
	}

	settings := s.Analyzer.Settings()
	analysis := Analysis{
		ID:              uuid.NewString(),
		JobDescription:  jobText,
		ResumeText:      resumeText,
		Provider:        settings.Provider,
		Model:           settings.Model,
		JobSourceKey:    jobKey,
		ResumeSourceKey: resumeKey,
		CreatedAt:       time.Now().UTC(),
	}

	result, runErr := s.Analyzer.Analyze(ctx, AnalysisInput{JobText: jobText, ResumeText: resumeText})
	var validationErr *apperr.ValidationError
	if errors.As(runErr, &validationErr) {
		return Analysis{}, runErr
	}

	completedAt := time.Now().UTC()
	analysis.CompletedAt = &completedAt
	if runErr != nil {
		analysis.Status = StatusFailed
		analysis.ErrorCode = apperr.Code(runErr)
		analysis.ErrorMessage = sanitizeError(runErr)
	} else {
		analysis.Status = StatusCompleted
		analysis.Result = &result
	}

	// Persist even when the caller has gone away.
	if err := s.Repo.Create(context.WithoutCancel(ctx), analysis); err != nil {
		telemetry.Error("analysis.persist_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
		if runErr == nil {
			return analysis, fmt.Errorf("store analysis: %w", err)
		}
	}

	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"analysis_id": analysis.ID,
		"status":      analysis.Status,
		"error_code":  analysis.ErrorCode,
	})
	return analysis, runErr
}

// Extract returns the text of an uploaded file.
func (s *Service) Extract(ctx context.Context, fileName string, body io.Reader) (extract.Result, error) {
	return s.extractor().ExtractUpload(ctx, fileName, body)
}

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	return s.Repo.GetByID(ctx, analysisID)
}

// List returns stored analyses newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Export writes the persisted form of a completed analysis to w and, when a store
// is configured, keeps a copy under exports/<id>.json.
func (s *Service) Export(ctx context.Context, analysisID string, w io.Writer) error {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return err
	}
	if analysis.Result == nil {
		return ErrNoResult
	}

	var buf bytes.Buffer
	if err := WriteResult(&buf, *analysis.Result); err != nil {
		return err
	}
	if s.Store != nil {
		key := ExportKey(analysis.ID)
		if _, err := s.Store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(buf.Bytes())); err != nil {
			telemetry.Warn("analysis.export_store_failed", map[string]any{
				"analysis_id": analysis.ID,
				"key":         key,
				"error":       err.Error(),
			})
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Source sides accepted by OpenSource.
const (
	SourceJob    = "job"
	SourceResume = "resume"
)

// OpenSource opens the stored upload behind one side of an analysis.
// The caller closes the returned reader.
func (s *Service) OpenSource(ctx context.Context, analysisID, side string) (io.ReadCloser, string, error) {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return nil, "", err
	}
	var key string
	switch side {
	case SourceJob:
		key = analysis.JobSourceKey
	case SourceResume:
		key = analysis.ResumeSourceKey
	default:
		return nil, "", &apperr.ValidationError{Field: "side", Message: "must be job or resume"}
	}
	if key == "" || s.Store == nil {
		return nil, "", ErrNoSource
	}
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("open source %s: %w", key, err)
	}
	return rc, key, nil
}

// ExportKey is the object-store key of an exported result.
func ExportKey(analysisID string) string {
	return "exports/" + analysisID + ".json"
}

// resolve returns the text of src and, for uploads kept in the store, their key.
func (s *Service) resolve(ctx context.Context, field string, src Source) (string, string, error) {
	if src.Body == nil {
		if strings.TrimSpace(src.Text) == "" {
			return "", "", &apperr.ValidationError{Field: field}
		}
		return src.Text, "", nil
	}

	data, err := io.ReadAll(src.Body)
	if err != nil {
		return "", "", &apperr.ExtractionError{File: src.FileName, Reason: "read upload", Err: err}
	}
	var storedKey string
	if s.Store != nil {
		key, size, mimeType, err := s.Store.Save(ctx, uploadsNamespace, src.FileName, bytes.NewReader(data))
		if err != nil {
			telemetry.Warn("analysis.upload_store_failed", map[string]any{
				"file":  src.FileName,
				"error": err.Error(),
			})
		} else {
			storedKey = key
			telemetry.Info("analysis.upload_stored", map[string]any{
				"field":      field,
				"key":        key,
				"size_bytes": size,
				"mime_type":  mimeType,
			})
		}
	}

	res, err := s.extractor().ExtractUpload(ctx, src.FileName, bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", "", &apperr.ValidationError{Field: field, Message: "no text found in " + src.FileName}
	}
	return res.Text, storedKey, nil
}

func (s *Service) extractor() *extract.Extractor {
	if s.Extractor == nil {
		return extract.New(0)
	}
	return s.Extractor
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
