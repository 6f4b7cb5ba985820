package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsed: time.Second}
}

func TestGenerateRetriesTransient(t *testing.T) {
	calls := 0
	mock := llm.NewMockProvider(func(history []llm.Message, opts llm.Options) (string, error) {
		calls++
		if calls < 3 {
			return "", apperror.FromStatus("chat", 503, "overloaded")
		}
		assert.Equal(t, llm.RoleSystem, history[0].Role)
		assert.Equal(t, 256, opts.MaxTokens)
		return "  the answer [1]  ", nil
	})

	g := New(mock, Config{Timeout: time.Second}, logger.NewNopLogger()).WithPolicy(fastPolicy())
	ans, err := g.Generate(context.Background(), "sys", "user", Options{Temperature: 0.2, MaxTokens: 256})

	require.NoError(t, err)
	assert.Equal(t, "the answer [1]", ans.Text)
	assert.Equal(t, 3, ans.Attempts)
}

func TestGenerateDoesNotRetryTerminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"content policy", apperror.FromStatus("chat", 400, "content_policy_violation")},
		{"malformed request", apperror.FromStatus("chat", 422, "bad schema")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			mock := llm.NewMockProvider(func([]llm.Message, llm.Options) (string, error) {
				calls++
				return "", tt.err
			})

			g := New(mock, Config{Timeout: time.Second}, logger.NewNopLogger()).WithPolicy(fastPolicy())
			_, err := g.Generate(context.Background(), "sys", "user", Options{})

			assert.Equal(t, 1, calls)
			assert.Equal(t, apperror.KindTerminal, apperror.KindOf(err))
		})
	}
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	mock := llm.NewMockProvider(func([]llm.Message, llm.Options) (string, error) {
		calls++
		return "", apperror.FromStatus("chat", 502, "bad gateway")
	})

	g := New(mock, Config{Timeout: time.Second}, logger.NewNopLogger()).WithPolicy(fastPolicy())
	_, err := g.Generate(context.Background(), "sys", "user", Options{})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestGenerateTimeout(t *testing.T) {
	mock := llm.NewMockProvider(func([]llm.Message, llm.Options) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "", context.DeadlineExceeded
	})

	g := New(mock, Config{Timeout: 20 * time.Millisecond}, logger.NewNopLogger()).WithPolicy(fastPolicy())
	_, err := g.Generate(context.Background(), "sys", "user", Options{})

	assert.ErrorIs(t, err, ErrGenerationTimeout)
	assert.True(t, apperror.IsTransient(err))
}

func TestGenerateCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(llm.StaticMock("x"), Config{Timeout: time.Second}, logger.NewNopLogger())
	_, err := g.Generate(ctx, "sys", "user", Options{})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrGenerationTimeout))
}
