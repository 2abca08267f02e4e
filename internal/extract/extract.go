package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/telemetry"
	"resume-matcher/internal/shared/util"
)

const (
	FormatText = "text"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatDOC  = "doc"
)

// ErrLegacyDoc is returned for the binary Word format, which is never supported.
var ErrLegacyDoc = errors.New("legacy .doc format is not supported; convert the file to .docx using Microsoft Word or a free converter")

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string   `json:"text"`
	Format   string   `json:"format"`
	Warnings []string `json:"warnings"`
}

// Extractor turns uploaded documents into plain text.
// Libraries used: github.com/ledongthuc/pdf (PDF), github.com/nguyenthenguyen/docx (DOCX)
// and golang.org/x/text (Latin-1 fallback for plain text).
type Extractor struct {
	// Timeout bounds a single extraction; zero means only the caller's context applies.
	Timeout time.Duration
	// TempDir receives spooled uploads; empty means os.TempDir().
	TempDir string
}

// New constructs an Extractor with the given per-file timeout.
func New(timeout time.Duration) *Extractor {
	return &Extractor{Timeout: timeout}
}

// Extract returns the plain text of filePath, choosing the parser from declaredExt.
// When declaredExt is empty the extension of filePath is used.
func (e *Extractor) Extract(ctx context.Context, filePath, declaredExt string) (string, error) {
	res, err := e.ExtractDetailed(ctx, filePath, declaredExt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ExtractDetailed is Extract plus the format used and any fallback warnings.
func (e *Extractor) ExtractDetailed(ctx context.Context, filePath, declaredExt string) (Result, error) {
	name := filepath.Base(filePath)
	format := FormatFor(declaredExt, filePath)
	if format == FormatDOC {
		metrics.IncExtractionFailed()
		return Result{}, &apperr.ExtractionError{File: name, Reason: "unsupported format", Err: ErrLegacyDoc}
	}

	res, err := e.withTimeout(ctx, name, func() (Result, error) {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Result{}, &apperr.ExtractionError{File: name, Reason: "file not found", Err: err}
			}
			return Result{}, &apperr.ExtractionError{File: name, Reason: "read failed", Err: err}
		}
		return extractBytes(name, format, data)
	})
	if err != nil {
		metrics.IncExtractionFailed()
		telemetry.Error("extract.failed", map[string]any{
			"file":   name,
			"format": format,
			"error":  err.Error(),
		})
		return Result{}, err
	}
	metrics.IncExtraction()
	for _, w := range res.Warnings {
		telemetry.Warn("extract.warning", map[string]any{
			"file":    name,
			"format":  format,
			"warning": w,
		})
	}
	return res, nil
}

// ExtractUpload spools r to a temporary file named after fileName and extracts it.
// The temporary file is removed on every return path.
func (e *Extractor) ExtractUpload(ctx context.Context, fileName string, r io.Reader) (Result, error) {
	clean, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Result{}, &apperr.ExtractionError{File: fileName, Reason: "invalid file name", Err: err}
	}
	ext := strings.ToLower(filepath.Ext(clean))

	tmp, err := os.CreateTemp(e.TempDir, "upload-*"+ext)
	if err != nil {
		return Result{}, &apperr.ExtractionError{File: clean, Reason: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Result{}, &apperr.ExtractionError{File: clean, Reason: "spool upload", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return Result{}, &apperr.ExtractionError{File: clean, Reason: "spool upload", Err: err}
	}

	res, err := e.ExtractDetailed(ctx, tmpPath, ext)
	if err != nil {
		var extErr *apperr.ExtractionError
		if errors.As(err, &extErr) {
			extErr.File = clean
		}
		return Result{}, err
	}
	return res, nil
}

// FormatFor resolves the parser for a declared extension, falling back to the path's extension.
// Unknown extensions are treated as plain text.
func FormatFor(declaredExt, filePath string) string {
	ext := strings.ToLower(strings.TrimSpace(declaredExt))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filePath))
	}
	ext = strings.TrimPrefix(ext, ".")
	switch ext {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "doc":
		return FormatDOC
	default:
		return FormatText
	}
}

func extractBytes(name, format string, data []byte) (Result, error) {
	switch format {
	case FormatPDF:
		text, warnings, err := extractPDF(data)
		if err != nil {
			return Result{}, &apperr.ExtractionError{File: name, Reason: "no text could be extracted from PDF", Err: err}
		}
		return Result{Text: text, Format: format, Warnings: warnings}, nil
	case FormatDOCX:
		text, warnings, err := extractDOCX(data)
		if err != nil {
			return Result{}, &apperr.ExtractionError{File: name, Reason: "failed to read DOCX", Err: err}
		}
		return Result{Text: text, Format: format, Warnings: warnings}, nil
	default:
		text, warnings := decodeText(data)
		return Result{Text: text, Format: FormatText, Warnings: warnings}, nil
	}
}

func (e *Extractor) withTimeout(ctx context.Context, name string, fn func() (Result, error)) (Result, error) {
	if e != nil && e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, wrapCtxErr(name, err)
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: &apperr.ExtractionError{File: name, Reason: "parser panic", Err: fmt.Errorf("%v", rec)}}
			}
		}()
		res, err := fn()
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return Result{}, wrapCtxErr(name, ctx.Err())
	}
}

func wrapCtxErr(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperr.TimeoutError{Op: "extract " + name, Err: err}
	}
	return &apperr.ExtractionError{File: name, Reason: "canceled", Err: err}
}
