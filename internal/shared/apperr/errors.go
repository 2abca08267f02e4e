// Package apperr defines the classified errors shared by extraction, the LLM
// clients and the analysis orchestrator.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeExtraction    = "EXTRACTION_ERROR"
	CodeLLM           = "LLM_ERROR"
	CodeLLMTimeout    = "LLM_TIMEOUT"
	CodeTimeout       = "TIMEOUT"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

// ValidationError reports a missing or empty required input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation: %s is required", e.Field)
}

// ExtractionError reports a file whose text could not be extracted.
type ExtractionError struct {
	File   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s: %s", e.File, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RemoteCallError reports a failed exchange with the text-generation service.
type RemoteCallError struct {
	Step string
	Err  error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("llm %s step: %v", e.Step, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// ConfigurationError reports missing or invalid startup configuration.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("configuration: %s is required", e.Key)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Message)
}

// TimeoutError reports a blocking operation that exceeded its budget.
// Step is set when the operation was an analysis step.
type TimeoutError struct {
	Op   string
	Step string
	Err  error
}

func (e *TimeoutError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("timeout: %s (%s step): %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("timeout: %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a deadline expiry in any of its usual forms.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Code maps an error to a stable code for API responses and stored records.
func Code(err error) string {
	var (
		validation *ValidationError
		extraction *ExtractionError
		timeout    *TimeoutError
		remote     *RemoteCallError
		config     *ConfigurationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &timeout):
		if timeout.Step != "" {
			return CodeLLMTimeout
		}
		return CodeTimeout
	case errors.As(err, &extraction):
		return CodeExtraction
	case errors.As(err, &remote):
		return CodeLLM
	case errors.As(err, &config):
		return CodeConfiguration
	default:
		return CodeInternal
	}
}
