package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is one structured-reply exchange with a text-generation service.
type Request struct {
	// Step names the analysis step, used for logging and error context.
	Step        string
	System      string
	Prompt      string
	Temperature float32
}

// Client abstracts text-generation providers that can answer with a JSON object.
type Client interface {
	CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// CleanJSON strips a surrounding markdown code fence from a model reply.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
