package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/apperr"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func stepIs(step string) any {
	return mock.MatchedBy(func(req llm.Request) bool { return req.Step == step })
}

var sampleInput = AnalysisInput{
	JobText:    "Senior engineer: Python, Kubernetes, TensorFlow",
	ResumeText: "Jane Doe. Python, Docker, AWS.",
}

func TestAnalyzeMergesAllSteps(t *testing.T) {
	client := newFakeLLM()
	a := newTestAnalyzer(t, client)

	got, err := a.Analyze(context.Background(), sampleInput)
	require.NoError(t, err)

	assert.Equal(t, AnalysisResult{
		SimilarityScore: 72,
		OverallMatch:    "Good",
		KeyStrengths:    []string{"Python", "REST APIs"},
		AnalysisSummary: "Solid backend match.",
		MatchingSkills:  []string{"Python", "Docker"},
		MissingSkills:   []string{"Kubernetes", "TensorFlow"},
		PartialMatches:  []string{"AWS: only EC2 and S3"},
		Recommendations: []string{"Quantify API throughput", "Add a Kubernetes side project"},
	}, got)

	calls := client.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{StepScore, StepSkills, StepRecommendations}, []string{calls[0].Step, calls[1].Step, calls[2].Step})
	assert.InDelta(t, 0.3, calls[0].Temperature, 0.0001)
	assert.InDelta(t, 0.3, calls[1].Temperature, 0.0001)
	assert.InDelta(t, 0.4, calls[2].Temperature, 0.0001)
	for _, c := range calls {
		assert.Contains(t, c.Prompt, sampleInput.JobText)
		assert.Contains(t, c.Prompt, sampleInput.ResumeText)
		assert.NotEmpty(t, c.System)
	}
	assert.Contains(t, calls[2].Prompt, "MISSING SKILLS:\nKubernetes, TensorFlow\n")
}

func TestAnalyzeDefaultsMissingKeys(t *testing.T) {
	client := newFakeLLM()
	client.replies[StepScore] = stepReply{body: `{}`}
	client.replies[StepSkills] = stepReply{body: `{"matching_skills": ["Go"], "missing_skills": []}`}
	client.replies[StepRecommendations] = stepReply{body: `{"other": true}`}
	a := newTestAnalyzer(t, client)

	got, err := a.Analyze(context.Background(), sampleInput)
	require.NoError(t, err)

	assert.Equal(t, 0, got.SimilarityScore)
	assert.Equal(t, "Unknown", got.OverallMatch)
	assert.Equal(t, "", got.AnalysisSummary)
	assert.NotNil(t, got.KeyStrengths)
	assert.Empty(t, got.KeyStrengths)
	assert.Equal(t, []string{}, got.PartialMatches)
	assert.Equal(t, []string{}, got.Recommendations)

	calls := client.calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[2].Prompt, "MISSING SKILLS:\nNone identified\n")
}

func TestAnalyzeRejectsEmptyInputWithoutRemoteCalls(t *testing.T) {
	tests := []struct {
		name  string
		in    AnalysisInput
		field string
	}{
		{name: "empty resume", in: AnalysisInput{JobText: "job", ResumeText: "  \n\t"}, field: "resume"},
		{name: "empty job", in: AnalysisInput{JobText: "", ResumeText: "resume"}, field: "job_description"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeLLM()
			a := newTestAnalyzer(t, client)

			_, err := a.Analyze(context.Background(), tt.in)
			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, client.calls())
		})
	}
}

func TestAnalyzeStepFailureAborts(t *testing.T) {
	client := newFakeLLM()
	client.replies[StepSkills] = stepReply{err: errors.New("openai http status 500: boom")}
	a := newTestAnalyzer(t, client)

	got, err := a.Analyze(context.Background(), sampleInput)
	var remote *apperr.RemoteCallError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, StepSkills, remote.Step)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, AnalysisResult{}, got)
	assert.Len(t, client.calls(), 2, "recommendations must not run after a skills failure")
}

func TestAnalyzeMalformedReplyIsRemoteCallError(t *testing.T) {
	client := newFakeLLM()
	client.replies[StepRecommendations] = stepReply{body: `["not", "an", "object"]`}
	a := newTestAnalyzer(t, client)

	_, err := a.Analyze(context.Background(), sampleInput)
	var remote *apperr.RemoteCallError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, StepRecommendations, remote.Step)
	assert.Equal(t, apperr.CodeLLM, apperr.Code(err))
}

func TestAnalyzeTimeout(t *testing.T) {
	client := new(mockClient)
	client.On("CompleteJSON", mock.Anything, stepIs(StepScore)).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded)

	settings := testSettings()
	settings.Timeout = 20 * time.Millisecond
	a, err := NewAnalyzer(client, settings)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), sampleInput)
	var timeout *apperr.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, StepScore, timeout.Step)
	assert.Equal(t, apperr.CodeLLMTimeout, apperr.Code(err))
	client.AssertNumberOfCalls(t, "CompleteJSON", 1)
}

func TestAnalyzeConcurrentSteps(t *testing.T) {
	client := new(mockClient)
	client.On("CompleteJSON", mock.Anything, stepIs(StepScore)).Return(json.RawMessage(scoreReply), nil).Once()
	client.On("CompleteJSON", mock.Anything, stepIs(StepSkills)).Return(json.RawMessage(skillsReply), nil).Once()
	client.On("CompleteJSON", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Step == StepRecommendations && strings.Contains(req.Prompt, "Kubernetes, TensorFlow")
	})).Return(json.RawMessage(recsReply), nil).Once()

	settings := testSettings()
	settings.Concurrent = true
	a, err := NewAnalyzer(client, settings)
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), sampleInput)
	require.NoError(t, err)
	assert.Equal(t, 72, got.SimilarityScore)
	assert.Len(t, got.Recommendations, 2)
	client.AssertExpectations(t)
}

func TestNewAnalyzerRequiresCredentials(t *testing.T) {
	settings := testSettings()
	settings.APIKey = ""
	_, err := NewAnalyzer(newFakeLLM(), settings)
	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Key)

	settings.Provider = "gemini"
	_, err = NewAnalyzer(newFakeLLM(), settings)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
}

func TestNewAnalyzerRejectsUnknownProvider(t *testing.T) {
	settings := testSettings()
	settings.Provider = "llama"
	_, err := NewAnalyzer(newFakeLLM(), settings)
	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "LLM_PROVIDER", cfgErr.Key)
}

func TestNewAnalyzerRequiresClient(t *testing.T) {
	_, err := NewAnalyzer(nil, testSettings())
	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
