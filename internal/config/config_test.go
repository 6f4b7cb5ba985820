package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAG_TOP_K", "")

	cfg := Load()

	assert.Equal(t, 1500, cfg.Rag.ChunkSize)
	assert.Equal(t, 200, cfg.Rag.ChunkOverlap)
	assert.Equal(t, 5, cfg.Rag.TopK)
	assert.Equal(t, 3, cfg.Rag.OverFetchFactor)
	assert.InDelta(t, 0.1, cfg.Rag.FeedbackWeight, 1e-9)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("RAG_FEEDBACK_WEIGHT", "0.05")
	t.Setenv("RAG_QUERY_TIMEOUT", "45s")
	t.Setenv("RAG_EVALUATION_ENABLED", "false")
	t.Setenv("EMBEDDING_PROVIDERS", "ollama, jina ,,gemini")

	cfg := Load()

	assert.Equal(t, 8, cfg.Rag.TopK)
	assert.InDelta(t, 0.05, cfg.Rag.FeedbackWeight, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.Rag.QueryTimeout)
	assert.False(t, cfg.Rag.EvaluationEnabled)
	assert.Equal(t, []string{"ollama", "jina", "gemini"}, cfg.Ai.EmbeddingProviders)
}

func TestGetEnvFallbacksOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_DURATION", time.Second))
}
