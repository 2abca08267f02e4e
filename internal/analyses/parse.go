package analyses

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const unknownMatch = "Unknown"

var matchLevels = []string{"Poor", "Fair", "Good", "Excellent"}

// replyObject decodes a model reply that must be a JSON object.
func replyObject(raw []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("malformed reply: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("malformed reply: expected a JSON object")
	}
	return obj, nil
}

func parseScore(raw []byte) (ScoreResult, error) {
	obj, err := replyObject(raw)
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{
		SimilarityScore: scoreField(obj, "similarity_score"),
		OverallMatch:    matchLevel(stringField(obj, "overall_match")),
		KeyStrengths:    stringList(obj, "key_strengths"),
		AnalysisSummary: stringField(obj, "analysis_summary"),
	}, nil
}

// matchLevel returns the canonical spelling of a known match level, or Unknown.
func matchLevel(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, level := range matchLevels {
		if strings.EqualFold(raw, level) {
			return level
		}
	}
	return unknownMatch
}

func parseSkills(raw []byte) (SkillsResult, error) {
	obj, err := replyObject(raw)
	if err != nil {
		return SkillsResult{}, err
	}
	return SkillsResult{
		MatchingSkills: stringList(obj, "matching_skills"),
		MissingSkills:  stringList(obj, "missing_skills"),
		PartialMatches: stringList(obj, "partial_matches"),
	}, nil
}

func parseRecommendations(raw []byte) ([]string, error) {
	obj, err := replyObject(raw)
	if err != nil {
		return nil, err
	}
	return stringList(obj, "recommendations"), nil
}

// scoreField reads a 0-100 score, accepting numbers and numeric strings.
// Anything else is 0; out-of-range values are clamped.
func scoreField(obj map[string]any, key string) int {
	var value float64
	switch v := obj[key].(type) {
	case float64:
		value = v
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(v), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		value = parsed
	default:
		return 0
	}
	if math.IsNaN(value) {
		return 0
	}
	value = math.Round(value)
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return int(value)
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// stringList reads a list of strings, dropping elements of any other type.
// The result is never nil.
func stringList(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
