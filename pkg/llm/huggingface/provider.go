package huggingface

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/httpjson"
	"ai-docqa-be/pkg/llm"
)

// HuggingFaceProvider talks to the OpenAI-compatible router.
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = (*HuggingFaceProvider)(nil)

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1" // Default Router URL
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HuggingFaceProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	opts := llm.Apply(llm.Options{Model: p.model, MaxTokens: 500, Temperature: 0.7}, options...)

	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    history,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.JSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", p.apiKey)
	}

	var chatResp chatResponse
	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	if err := httpjson.Post(ctx, p.client, "huggingface.chat", url, headers, reqBody, &chatResp); err != nil {
		return nil, err
	}

	if chatResp.Error != nil {
		return nil, apperror.New(apperror.KindTerminal, "huggingface.chat", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, apperror.New(apperror.KindTransient, "huggingface.chat", "empty choices")
	}

	model := chatResp.Model
	if model == "" {
		model = opts.Model
	}
	return &llm.Completion{
		Text:             chatResp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	// Wrap single prompt into a user message
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
