package factory

import (
	"fmt"

	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/llm/gemini"
	"ai-docqa-be/pkg/llm/huggingface"
	"ai-docqa-be/pkg/llm/ollama"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		p, err := ollama.NewOllamaProvider(baseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "gemini":
		return gemini.NewGeminiProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "mock":
		return llm.StaticMock("I could not find that in your documents."), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
