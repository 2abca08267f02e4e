package analyses

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
	// MaxUploadBytes caps request bodies on upload routes; zero disables the cap.
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.createAnalysis)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/export", h.exportAnalysis)
	rg.GET("/analyses/:id/sources/:side", h.sourceFile)
	rg.POST("/extract", h.extractFile)
}

type createAnalysisRequest struct {
	JobDescription string `json:"jobDescription"`
	Resume         string `json:"resume"`
}

func (h *Handler) createAnalysis(c *gin.Context) {
	h.limitBody(c)
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	var job, resume Source
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var closers []multipart.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		var err error
		if job, err = formSource(c, "jobFile", "jobDescription", &closers); err != nil {
			writeFormError(c, "jobFile", err)
			return
		}
		if resume, err = formSource(c, "resumeFile", "resume", &closers); err != nil {
			writeFormError(c, "resumeFile", err)
			return
		}
	} else {
		var req createAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, apperr.CodeValidation, "invalid JSON body", nil)
			return
		}
		job = Source{Text: req.JobDescription}
		resume = Source{Text: req.Resume}
	}

	analysis, err := h.Svc.Create(ctx, job, resume)
	if err != nil {
		var details any
		if analysis.ID != "" {
			details = gin.H{"id": analysis.ID}
		}
		writeError(c, err, details)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"id":     analysis.ID,
		"status": analysis.Status,
		"result": analysis.Result,
	})
}

// formSource reads a file field, falling back to a text field when no file was sent.
func formSource(c *gin.Context, fileField, textField string, closers *[]multipart.File) (Source, error) {
	fh, err := c.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Source{Text: c.PostForm(textField)}, nil
		}
		return Source{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return Source{}, err
	}
	*closers = append(*closers, f)
	return Source{FileName: fh.Filename, Body: f}, nil
}

// writeFormError reports a multipart read failure; an oversized body is a 413.
func writeFormError(c *gin.Context, field string, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeError(c, err, nil)
		return
	}
	respond.Error(c, http.StatusBadRequest, apperr.CodeValidation, "invalid "+field+" upload", nil)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysis, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	respond.JSON(c, http.StatusOK, analysis)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	analyses, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, apperr.CodeInternal, "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(analyses))
	for _, a := range analyses {
		item := gin.H{
			"id":        a.ID,
			"status":    a.Status,
			"provider":  a.Provider,
			"model":     a.Model,
			"createdAt": a.CreatedAt,
		}
		if a.Result != nil {
			item["similarityScore"] = a.Result.SimilarityScore
			item["overallMatch"] = a.Result.OverallMatch
		}
		if a.ErrorCode != "" {
			item["errorCode"] = a.ErrorCode
		}
		resp = append(resp, item)
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) exportAnalysis(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Svc.Export(c.Request.Context(), c.Param("id"), &buf); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+DefaultResultFile+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (h *Handler) sourceFile(c *gin.Context) {
	rc, key, err := h.Svc.OpenSource(c.Request.Context(), c.Param("id"), c.Param("side"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(key) + `"`,
	})
}

func (h *Handler) extractFile(c *gin.Context) {
	h.limitBody(c)
	fh, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, apperr.CodeValidation, "file is required", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, apperr.CodeValidation, "unreadable upload", nil)
		return
	}
	defer f.Close()

	res, err := h.Svc.Extract(c.Request.Context(), fh.Filename, f)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"text":     res.Text,
		"format":   res.Format,
		"warnings": warnings,
	})
}

func (h *Handler) limitBody(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
}

// writeError maps classified errors to HTTP statuses.
func writeError(c *gin.Context, err error, details any) {
	var (
		validation *apperr.ValidationError
		extraction *apperr.ExtractionError
		timeout    *apperr.TimeoutError
		remote     *apperr.RemoteCallError
		maxBytes   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "analysis not found", nil)
	case errors.Is(err, ErrNoResult):
		respond.Error(c, http.StatusConflict, "NO_RESULT", "analysis has no result to export", nil)
	case errors.Is(err, ErrNoSource):
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "analysis has no stored source file", nil)
	case errors.As(err, &maxBytes):
		respond.Error(c, http.StatusRequestEntityTooLarge, apperr.CodeValidation, "upload too large", nil)
	case errors.As(err, &validation):
		respond.Error(c, http.StatusBadRequest, apperr.CodeValidation, validation.Error(), details)
	case errors.As(err, &extraction):
		respond.Error(c, http.StatusBadRequest, apperr.CodeExtraction, extraction.Error(), details)
	case errors.As(err, &timeout):
		respond.Error(c, http.StatusGatewayTimeout, apperr.Code(err), timeout.Error(), details)
	case errors.As(err, &remote):
		respond.Error(c, http.StatusBadGateway, apperr.CodeLLM, remote.Error(), details)
	default:
		respond.Error(c, http.StatusInternalServerError, apperr.Code(err), "internal error", details)
	}
}
