package classifier

import (
	"context"
	"errors"
	"testing"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		want     Category
		fallback bool
	}{
		{"conversational", `{"category":"conversational","reason":"greeting"}`, nil, Conversational, false},
		{"fenced comparison", "```json\n{\"category\": \"Comparison\"}\n```", nil, Comparison, false},
		{"summary with prose", `Sure: {"category":"summarization"}`, nil, Summarization, false},
		{"unknown category", `{"category":"poetry"}`, nil, Fallback, true},
		{"garbage", "I think it is a question", nil, Fallback, true},
		{"llm error", "", errors.New("boom"), Fallback, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(func([]llm.Message, llm.Options) (string, error) {
				return tt.reply, tt.err
			})
			c := New(mock, "", logger.NewNopLogger())

			got := c.Classify(context.Background(), "what does the contract say?", nil)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.fallback, got.Fallback)
		})
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	mock := llm.StaticMock(`{"category":"comparison"}`)
	got := New(mock, "", logger.NewNopLogger()).Classify(context.Background(), "  ", nil)

	assert.Equal(t, Conversational, got.Category)
	assert.Empty(t, mock.Calls())
}

func TestNeedsRetrieval(t *testing.T) {
	assert.False(t, Conversational.NeedsRetrieval())
	assert.True(t, KnowledgeSeeking.NeedsRetrieval())
	assert.True(t, Comparison.NeedsRetrieval())
}
