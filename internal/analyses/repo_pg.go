package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, status, job_description, resume_text, provider, model, result,
       error_code, error_message, job_source_key, resume_source_key,
       created_at, completed_at
FROM analyses`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, status, job_description, resume_text, provider, model, result,
	error_code, error_message, job_source_key, resume_source_key,
	created_at, completed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var resultPayload any
	if analysis.Result != nil {
		payload, err := json.Marshal(analysis.Result)
		if err != nil {
			return err
		}
		resultPayload = payload
	}
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.Status,
		analysis.JobDescription,
		analysis.ResumeText,
		analysis.Provider,
		analysis.Model,
		resultPayload,
		nullString(analysis.ErrorCode),
		nullString(analysis.ErrorMessage),
		nullString(analysis.JobSourceKey),
		nullString(analysis.ResumeSourceKey),
		analysis.CreatedAt,
		analysis.CompletedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query := selectColumns + `
WHERE id = $1
LIMIT 1`
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// List lists analyses ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	limit, offset = clampPage(limit, offset)
	query := selectColumns + `
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var provider sql.NullString
	var model sql.NullString
	var result sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var jobSourceKey sql.NullString
	var resumeSourceKey sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.Status,
		&a.JobDescription,
		&a.ResumeText,
		&provider,
		&model,
		&result,
		&errorCode,
		&errorMessage,
		&jobSourceKey,
		&resumeSourceKey,
		&a.CreatedAt,
		&completedAt,
	); err != nil {
		return Analysis{}, err
	}
	a.Provider = provider.String
	a.Model = model.String
	a.ErrorCode = errorCode.String
	a.ErrorMessage = errorMessage.String
	a.JobSourceKey = jobSourceKey.String
	a.ResumeSourceKey = resumeSourceKey.String
	if result.Valid && result.String != "" {
		var parsed AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &parsed); err != nil {
			return Analysis{}, fmt.Errorf("decode analysis %s result: %w", a.ID, err)
		}
		parsed = normalizeResult(parsed)
		a.Result = &parsed
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
