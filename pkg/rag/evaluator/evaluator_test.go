package evaluator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallWeighting(t *testing.T) {
	assert.InDelta(t, 0.78, Overall(0.8, 0.6, 1.0), 1e-9)
	assert.InDelta(t, 1.0, WeightFaithfulness+WeightRelevance+WeightCompleteness, 1e-9)
}

func TestParseCheck(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantScore  float64
		wantIssues []string
		wantOK     bool
	}{
		{"plain", `{"score": 0.7, "issues": ["missing date"]}`, 0.7, []string{"missing date"}, true},
		{"clamp high", `{"score": 5}`, 1.0, []string{}, true},
		{"clamp low", `{"score": -3, "issues": []}`, 0.0, []string{}, true},
		{"non string issues dropped", `{"score": 0.5, "issues": ["ok", 3, {"x":1}, null, "fine"]}`, 0.5, []string{"ok", "fine"}, true},
		{"wrapped in prose", "Here you go:\n```json\n{\"score\": 0.9}\n```", 0.9, []string{}, true},
		{"issues as string", `{"score": 0.9, "issues": "none"}`, 0.9, []string{}, true},
		{"issues as object", `{"score": 0.7, "issues": {"x": 1}}`, 0.7, []string{}, true},
		{"issues null", `{"score": 0.4, "issues": null}`, 0.4, []string{}, true},
		{"numeric string score", `{"score": "0.8", "issues": ["vague"]}`, 0.8, []string{"vague"}, true},
		{"word score", `{"score": "high"}`, 0, nil, false},
		{"null score", `{"score": null}`, 0, nil, false},
		{"missing score", `{"issues": ["x"]}`, 0, nil, false},
		{"not json", "score: high", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCheck(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantIssues, got.Issues)
		})
	}
}

var contexts = []prompt.Context{{Source: "a.pdf", Content: "Alpha is the first letter."}}

func TestEvaluateSkips(t *testing.T) {
	mock := llm.StaticMock(`{"score": 0}`)
	e := New(mock, "", logger.NewNopLogger())

	tests := []struct {
		name string
		in   Input
	}{
		{"conversational with contexts", Input{Category: classifier.Conversational, Query: "hi", Answer: "hello", Contexts: contexts}},
		{"conversational without contexts", Input{Category: classifier.Conversational, Query: "hi", Answer: "hello"}},
		{"no contexts", Input{Category: classifier.KnowledgeSeeking, Query: "q", Answer: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(context.Background(), tt.in)
			assert.Equal(t, 1.0, got.Overall)
			assert.Empty(t, got.Issues())
			assert.True(t, got.Skipped)
		})
	}
	assert.Empty(t, mock.Calls())
}

func checkName(history []llm.Message) string {
	body := history[len(history)-1].Content
	switch {
	case strings.Contains(body, "faithfulness"):
		return "faithfulness"
	case strings.Contains(body, "covers what its sources support"):
		return "completeness"
	default:
		return "relevance"
	}
}

func TestEvaluateRunsAllChecks(t *testing.T) {
	var calls atomic.Int32
	mock := llm.NewMockProvider(func(history []llm.Message, _ llm.Options) (string, error) {
		calls.Add(1)
		switch checkName(history) {
		case "faithfulness":
			return `{"score": 0.8, "issues": ["claim about beta"]}`, nil
		case "relevance":
			return `{"score": 0.6}`, nil
		default:
			return `{"score": 1.0}`, nil
		}
	})

	got := New(mock, "grader", logger.NewNopLogger()).Evaluate(context.Background(), Input{
		Category: classifier.KnowledgeSeeking, Query: "What is alpha?", Answer: "Alpha is first [1].", Contexts: contexts,
	})

	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 0.78, got.Overall, 1e-9)
	assert.Equal(t, []string{"claim about beta"}, got.Issues())
	assert.False(t, got.Skipped)
}

func TestEvaluateIsolatesFailures(t *testing.T) {
	mock := llm.NewMockProvider(func(history []llm.Message, _ llm.Options) (string, error) {
		switch checkName(history) {
		case "faithfulness":
			return "", errors.New("grader down")
		case "relevance":
			return "not json at all", nil
		default:
			return `{"score": 1.0}`, nil
		}
	})

	got := New(mock, "", logger.NewNopLogger()).Evaluate(context.Background(), Input{
		Category: classifier.Summarization, Query: "summarize", Answer: "Alpha is first [1].", Contexts: contexts,
	})

	require.Equal(t, []string{IssueEvaluationFailed}, got.Faithfulness.Issues)
	assert.Equal(t, 0.0, got.Faithfulness.Score)
	assert.Equal(t, []string{IssueEvaluationFailed}, got.Relevance.Issues)
	assert.Equal(t, 1.0, got.Completeness.Score)
	assert.InDelta(t, 0.25, got.Overall, 1e-9)
}
