package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"answer"}}],"usage":{"prompt_tokens":5,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	out, err := NewHuggingFaceProvider("hf", srv.URL, "m").Generate(context.Background(), "q", llm.WithMaxTokens(64))
	require.NoError(t, err)
	assert.Equal(t, "answer", out.Text)
	assert.Equal(t, 5, out.PromptTokens)
}

func TestChatRateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "q")
	assert.True(t, apperror.IsTransient(err))
}
