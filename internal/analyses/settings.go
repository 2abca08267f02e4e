package analyses

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"resume-matcher/internal/shared/apperr"
)

// Settings configures an Analyzer. It is built once at startup and never mutated.
type Settings struct {
	Provider string `validate:"required,oneof=openai gemini"`
	Model    string `validate:"required"`
	APIKey   string `validate:"required"`
	// Timeout bounds a whole Analyze call; zero leaves only the caller's context.
	Timeout time.Duration `validate:"gte=0"`
	// Concurrent runs the score and skills steps in parallel.
	Concurrent bool
}

var settingsValidator = validator.New()

// Validate checks the settings and reports the first problem as a ConfigurationError.
func (s Settings) Validate() error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperr.ConfigurationError{Key: "settings", Message: err.Error()}
	}
	fe := verrs[0]
	key := s.envKey(fe.Field())
	if fe.Tag() == "required" {
		return &apperr.ConfigurationError{Key: key}
	}
	return &apperr.ConfigurationError{Key: key, Message: fmt.Sprintf("failed %q check", fe.Tag())}
}

func (s Settings) envKey(field string) string {
	switch field {
	case "Provider":
		return "LLM_PROVIDER"
	case "Model":
		return "LLM_MODEL"
	case "APIKey":
		if strings.EqualFold(s.Provider, "gemini") {
			return "GEMINI_API_KEY"
		}
		return "OPENAI_API_KEY"
	case "Timeout":
		return "ANALYSIS_TIMEOUT_SECONDS"
	default:
		return field
	}
}
