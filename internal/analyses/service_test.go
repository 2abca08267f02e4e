package analyses

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/storage/object/local"
)

func newTestService(t *testing.T, client *fakeLLM) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	return &Service{
		Repo:     repo,
		Analyzer: newTestAnalyzer(t, client),
		Store:    local.New(t.TempDir()),
	}, repo
}

func TestServiceCreateStoresCompletedAnalysis(t *testing.T) {
	svc, repo := newTestService(t, newFakeLLM())

	analysis, err := svc.Create(context.Background(), Source{Text: "job text"}, Source{Text: "resume text"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if analysis.Status != StatusCompleted || analysis.Result == nil {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if analysis.Provider != "openai" || analysis.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected provider/model %q/%q", analysis.Provider, analysis.Model)
	}

	stored, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Result.SimilarityScore != 72 || stored.CompletedAt == nil {
		t.Fatalf("unexpected stored analysis %+v", stored)
	}
}

func TestServiceCreateStoresFailedAnalysis(t *testing.T) {
	client := newFakeLLM()
	client.replies[StepScore] = stepReply{err: errors.New("connection refused")}
	svc, repo := newTestService(t, client)

	analysis, err := svc.Create(context.Background(), Source{Text: "job"}, Source{Text: "resume"})
	var remote *apperr.RemoteCallError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteCallError, got %v", err)
	}
	stored, getErr := repo.GetByID(context.Background(), analysis.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if stored.Status != StatusFailed || stored.ErrorCode != apperr.CodeLLM || stored.Result != nil {
		t.Fatalf("unexpected failed record %+v", stored)
	}
	if !strings.Contains(stored.ErrorMessage, "connection refused") {
		t.Fatalf("unexpected error message %q", stored.ErrorMessage)
	}
}

func TestServiceCreateValidationIsNotStored(t *testing.T) {
	client := newFakeLLM()
	svc, repo := newTestService(t, client)

	_, err := svc.Create(context.Background(), Source{Text: "job"}, Source{Text: "   "})
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	all, _ := repo.List(context.Background(), 10, 0)
	if len(all) != 0 {
		t.Fatalf("expected no stored analyses, got %d", len(all))
	}
	if len(client.calls()) != 0 {
		t.Fatalf("expected no remote calls, got %d", len(client.calls()))
	}
}

func TestServiceCreateExtractsUploads(t *testing.T) {
	client := newFakeLLM()
	svc, _ := newTestService(t, client)

	job := Source{FileName: "job.txt", Body: strings.NewReader("Backend engineer, Go")}
	resume := Source{FileName: "cv.doc", Body: strings.NewReader("binary")}
	_, err := svc.Create(context.Background(), job, resume)
	var extErr *apperr.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError for .doc upload, got %v", err)
	}
	if extErr.File != "cv.doc" {
		t.Fatalf("unexpected file %q", extErr.File)
	}

	resume = Source{FileName: "cv.txt", Body: strings.NewReader("Jane, Go developer")}
	job = Source{FileName: "job.txt", Body: strings.NewReader("Backend engineer, Go")}
	analysis, err := svc.Create(context.Background(), job, resume)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if analysis.ResumeText != "Jane, Go developer" || analysis.JobDescription != "Backend engineer, Go" {
		t.Fatalf("unexpected texts %+v", analysis)
	}
	calls := client.calls()
	if len(calls) != 3 || !strings.Contains(calls[0].Prompt, "Jane, Go developer") {
		t.Fatalf("expected extracted resume in prompts")
	}
}

func TestServiceExportWritesAndStores(t *testing.T) {
	svc, _ := newTestService(t, newFakeLLM())
	ctx := context.Background()

	analysis, err := svc.Create(ctx, Source{Text: "job"}, Source{Text: "resume"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, analysis.ID, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := ReadResult(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadResult: %v", err)
	}
	if got.SimilarityScore != 72 {
		t.Fatalf("unexpected exported result %+v", got)
	}

	rc, err := svc.Store.Open(ctx, ExportKey(analysis.ID))
	if err != nil {
		t.Fatalf("Open export: %v", err)
	}
	defer rc.Close()
	stored, _ := io.ReadAll(rc)
	if !bytes.Equal(stored, buf.Bytes()) {
		t.Fatalf("stored export differs from response")
	}
}

func TestServiceExportErrors(t *testing.T) {
	client := newFakeLLM()
	client.replies[StepSkills] = stepReply{err: errors.New("boom")}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	if err := svc.Export(ctx, "missing", io.Discard); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	failed, _ := svc.Create(ctx, Source{Text: "job"}, Source{Text: "resume"})
	if err := svc.Export(ctx, failed.ID, io.Discard); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestServiceRecordsUploadKeys(t *testing.T) {
	svc, repo := newTestService(t, newFakeLLM())
	ctx := context.Background()

	job := Source{Text: "Backend engineer, Go"}
	resume := Source{FileName: "cv.txt", Body: strings.NewReader("Jane, Go developer")}
	analysis, err := svc.Create(ctx, job, resume)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if analysis.JobSourceKey != "" {
		t.Fatalf("expected no key for literal job text, got %q", analysis.JobSourceKey)
	}
	if !strings.HasPrefix(analysis.ResumeSourceKey, uploadsNamespace+"/") || !strings.HasSuffix(analysis.ResumeSourceKey, "_cv.txt") {
		t.Fatalf("unexpected resume key %q", analysis.ResumeSourceKey)
	}
	stored, err := repo.GetByID(ctx, analysis.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ResumeSourceKey != analysis.ResumeSourceKey {
		t.Fatalf("expected key to be persisted, got %q", stored.ResumeSourceKey)
	}

	rc, key, err := svc.OpenSource(ctx, analysis.ID, SourceResume)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "Jane, Go developer" || key != analysis.ResumeSourceKey {
		t.Fatalf("unexpected source %q at %q", data, key)
	}

	if _, _, err := svc.OpenSource(ctx, analysis.ID, SourceJob); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource for literal job text, got %v", err)
	}
	var validationErr *apperr.ValidationError
	if _, _, err := svc.OpenSource(ctx, analysis.ID, "cover-letter"); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for unknown side, got %v", err)
	}
	if _, _, err := svc.OpenSource(ctx, "missing", SourceResume); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceWithoutStoreKeepsNoKeys(t *testing.T) {
	svc, _ := newTestService(t, newFakeLLM())
	svc.Store = nil
	ctx := context.Background()

	analysis, err := svc.Create(ctx, Source{Text: "job"}, Source{FileName: "cv.txt", Body: strings.NewReader("Jane")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if analysis.ResumeSourceKey != "" {
		t.Fatalf("expected no key without a store, got %q", analysis.ResumeSourceKey)
	}
	if _, _, err := svc.OpenSource(ctx, analysis.ID, SourceResume); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}
