package extract

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptyOutput = errors.New("no text produced")

// strategy is one way of turning raw bytes into text.
type strategy struct {
	name string
	run  func(data []byte) (string, error)
}

// firstSuccess tries strategies in order and returns the first output accepted by accept.
// Failures of earlier strategies are returned as warnings when a later one succeeds.
func firstSuccess(strategies []strategy, data []byte, accept func(string) bool) (string, []string, error) {
	if accept == nil {
		accept = hasText
	}
	var (
		warnings []string
		lastErr  error
	)
	for _, s := range strategies {
		out, err := runStrategy(s, data)
		if err == nil && !accept(out) {
			err = errEmptyOutput
		}
		if err == nil {
			return out, warnings, nil
		}
		lastErr = fmt.Errorf("%s: %w", s.name, err)
		warnings = append(warnings, lastErr.Error())
	}
	if lastErr == nil {
		lastErr = errEmptyOutput
	}
	return "", nil, lastErr
}

// runStrategy converts parser panics into errors; the PDF reader panics on some malformed files.
func runStrategy(s strategy, data []byte) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return s.run(data)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
