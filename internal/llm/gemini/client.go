package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/apperr"
	"resume-matcher/internal/shared/telemetry"
)

// Client implements llm.Client on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Options tunes the transport; the zero value talks to the public Gemini API.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient constructs a Gemini client for the given model.
func NewClient(ctx context.Context, apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &apperr.ConfigurationError{Key: "GEMINI_API_KEY"}
	}
	if strings.TrimSpace(model) == "" {
		return nil, &apperr.ConfigurationError{Key: "LLM_MODEL", Message: "required for Gemini"}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil && opts.Timeout > 0 {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(base, "/") + "/"
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &apperr.ConfigurationError{Key: "GEMINI_API_KEY", Message: err.Error()}
	}
	return &Client{client: client, model: model}, nil
}

// CompleteJSON asks the model for a JSON reply to the prompt.
func (c *Client) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	temp := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, &apperr.TimeoutError{Op: "gemini request", Step: req.Step, Err: err}
		}
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	fields := map[string]any{
		"model":      c.model,
		"step":       req.Step,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)

	raw := llm.CleanJSON(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("invalid JSON from Gemini")
	}
	return json.RawMessage(raw), nil
}

func isClientTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ llm.Client = (*Client)(nil)
