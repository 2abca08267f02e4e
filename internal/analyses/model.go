package analyses

import "time"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Analysis steps, in execution order.
const (
	StepScore           = "score"
	StepSkills          = "skills"
	StepRecommendations = "recommendations"
)

// AnalysisInput is the pair of texts compared by Analyze.
type AnalysisInput struct {
	JobText    string
	ResumeText string
}

// ScoreResult is the parsed reply of the score step.
type ScoreResult struct {
	SimilarityScore int
	OverallMatch    string
	KeyStrengths    []string
	AnalysisSummary string
}

// SkillsResult is the parsed reply of the skills step.
type SkillsResult struct {
	MatchingSkills []string
	MissingSkills  []string
	PartialMatches []string
}

// AnalysisResult merges the three step replies. Its JSON form is the persisted format.
type AnalysisResult struct {
	SimilarityScore int      `json:"similarity_score"`
	OverallMatch    string   `json:"overall_match"`
	KeyStrengths    []string `json:"key_strengths"`
	AnalysisSummary string   `json:"analysis_summary"`
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	PartialMatches  []string `json:"partial_matches"`
	Recommendations []string `json:"recommendations"`
}

func mergeResult(score ScoreResult, skills SkillsResult, recs []string) AnalysisResult {
	return AnalysisResult{
		SimilarityScore: score.SimilarityScore,
		OverallMatch:    score.OverallMatch,
		KeyStrengths:    nonNil(score.KeyStrengths),
		AnalysisSummary: score.AnalysisSummary,
		MatchingSkills:  nonNil(skills.MatchingSkills),
		MissingSkills:   nonNil(skills.MissingSkills),
		PartialMatches:  nonNil(skills.PartialMatches),
		Recommendations: nonNil(recs),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// Analysis is a stored analysis run.
type Analysis struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	JobDescription string          `json:"jobDescription"`
	ResumeText     string          `json:"resumeText"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	Result         *AnalysisResult `json:"result,omitempty"`
	ErrorCode      string          `json:"errorCode,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	// Source keys locate uploaded files in the object store; empty for literal text.
	JobSourceKey    string     `json:"jobSourceKey,omitempty"`
	ResumeSourceKey string     `json:"resumeSourceKey,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}
