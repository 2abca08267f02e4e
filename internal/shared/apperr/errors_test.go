package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: &ValidationError{Field: "resume"}, want: CodeValidation},
		{name: "extraction", err: &ExtractionError{File: "a.doc", Reason: "unsupported"}, want: CodeExtraction},
		{name: "remote", err: &RemoteCallError{Step: "score", Err: cause}, want: CodeLLM},
		{name: "step timeout", err: &TimeoutError{Op: "llm call", Step: "skills", Err: context.DeadlineExceeded}, want: CodeLLMTimeout},
		{name: "extract timeout", err: &TimeoutError{Op: "extract a.pdf", Err: context.DeadlineExceeded}, want: CodeTimeout},
		{name: "config", err: &ConfigurationError{Key: "OPENAI_API_KEY"}, want: CodeConfiguration},
		{name: "wrapped remote", err: fmt.Errorf("analyze: %w", &RemoteCallError{Step: "recommendations", Err: cause}), want: CodeLLM},
		{name: "plain", err: cause, want: CodeInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestErrorMessagesCarryContext(t *testing.T) {
	err := &RemoteCallError{Step: "skills", Err: errors.New("openai http status 500")}
	assert.Contains(t, err.Error(), "skills")
	assert.Contains(t, err.Error(), "status 500")

	ext := &ExtractionError{File: "resume.doc", Reason: "legacy format"}
	assert.Contains(t, ext.Error(), "resume.doc")

	assert.Equal(t, "validation: resume is required", (&ValidationError{Field: "resume"}).Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(&TimeoutError{Op: "x", Err: errors.New("late")}))
	assert.False(t, IsTimeout(errors.New("nope")))
	assert.False(t, IsTimeout(nil))
}
