package analyses

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"resume-matcher/internal/llm"
)

const (
	scoreReply  = `{"similarity_score": 72, "overall_match": "Good", "key_strengths": ["Python", "REST APIs"], "analysis_summary": "Solid backend match."}`
	skillsReply = `{"matching_skills": ["Python", "Docker"], "missing_skills": ["Kubernetes", "TensorFlow"], "partial_matches": ["AWS: only EC2 and S3"]}`
	recsReply   = `{"recommendations": ["Quantify API throughput", "Add a Kubernetes side project"]}`
)

type stepReply struct {
	body string
	err  error
}

// fakeLLM answers each step from a fixed table and records the requests it saw.
type fakeLLM struct {
	mu       sync.Mutex
	replies  map[string]stepReply
	requests []llm.Request
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{replies: map[string]stepReply{
		StepScore:           {body: scoreReply},
		StepSkills:          {body: skillsReply},
		StepRecommendations: {body: recsReply},
	}}
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply := f.replies[req.Step]
	f.mu.Unlock()
	if reply.err != nil {
		return nil, reply.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.RawMessage(reply.body), nil
}

func (f *fakeLLM) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

func testSettings() Settings {
	return Settings{Provider: "openai", Model: "gpt-4o-mini", APIKey: "test-key"}
}

func newTestAnalyzer(t *testing.T, client llm.Client) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(client, testSettings())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return a
}
