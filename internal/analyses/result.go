package analyses

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DefaultResultFile is the file name used when a result is saved without an explicit path.
const DefaultResultFile = "resume_analysis.json"

// WriteResult writes the result as indented UTF-8 JSON with non-ASCII and HTML characters unescaped.
func WriteResult(w io.Writer, result AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(normalizeResult(result))
}

// SaveResult writes the result to path, replacing any existing file.
func SaveResult(path string, result AnalysisResult) error {
	if path == "" {
		path = DefaultResultFile
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if err := WriteResult(f, result); err != nil {
		f.Close()
		return fmt.Errorf("save result: %w", err)
	}
	return f.Close()
}

// ReadResult decodes a result previously written by WriteResult.
func ReadResult(r io.Reader) (AnalysisResult, error) {
	var result AnalysisResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return AnalysisResult{}, fmt.Errorf("read result: %w", err)
	}
	return normalizeResult(result), nil
}

// LoadResult reads a result file written by SaveResult.
func LoadResult(path string) (AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("load result: %w", err)
	}
	defer f.Close()
	return ReadResult(f)
}

func normalizeResult(r AnalysisResult) AnalysisResult {
	r.KeyStrengths = nonNil(r.KeyStrengths)
	r.MatchingSkills = nonNil(r.MatchingSkills)
	r.MissingSkills = nonNil(r.MissingSkills)
	r.PartialMatches = nonNil(r.PartialMatches)
	r.Recommendations = nonNil(r.Recommendations)
	return r
}
