package analyses

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() AnalysisResult {
	return AnalysisResult{
		SimilarityScore: 81,
		OverallMatch:    "Excellent",
		KeyStrengths:    []string{"Façade design", "C++ & Go"},
		AnalysisSummary: "Strong <backend> fit; résumé aligns.",
		MatchingSkills:  []string{"Go"},
		MissingSkills:   []string{},
		PartialMatches:  []string{"Kubernetes: used via Helm only"},
		Recommendations: []string{"Mention latency numbers"},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	want := sampleResult()

	require.NoError(t, SaveResult(path, want))
	got, err := LoadResult(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteResultFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, sampleResult()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "{\n  \"similarity_score\": 81,\n"), out)
	assert.Contains(t, out, "résumé")
	assert.Contains(t, out, "<backend>")
	assert.Contains(t, out, "C++ & Go")
	assert.Contains(t, out, `"missing_skills": []`)

	keys := []string{"similarity_score", "overall_match", "key_strengths", "analysis_summary",
		"matching_skills", "missing_skills", "partial_matches", "recommendations"}
	last := -1
	for _, k := range keys {
		idx := strings.Index(out, `"`+k+`"`)
		require.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
}

func TestWriteResultNilListsAsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, AnalysisResult{OverallMatch: "Unknown"}))
	assert.NotContains(t, buf.String(), "null")
}

func TestLoadResultMissingFile(t *testing.T) {
	_, err := LoadResult(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
