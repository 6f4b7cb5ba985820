package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/httpjson"
	"ai-docqa-be/pkg/llm"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	roleModel      = "model"
)

type chatPart struct {
	Text string `json:"text"`
}

type chatContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []chatPart `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type chatRequest struct {
	SystemInstruction *chatContent     `json:"systemInstruction,omitempty"`
	Contents          []chatContent    `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type chatResponse struct {
	Candidates []struct {
		Content      chatContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(apiKey, baseURL, model string) *GeminiProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	req := chatRequest{
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if opts.JSON {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	var system []string
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleAssistant, roleModel:
			req.Contents = append(req.Contents, chatContent{Role: roleModel, Parts: []chatPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, chatContent{Role: llm.RoleUser, Parts: []chatPart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &chatContent{Parts: []chatPart{{Text: strings.Join(system, "\n\n")}}}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, opts.Model)
	var resp chatResponse
	if err := httpjson.Post(ctx, p.client, "gemini.chat", endpoint, map[string]string{"x-goog-api-key": p.apiKey}, req, &resp); err != nil {
		return nil, err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, apperror.New(apperror.KindTerminal, "gemini.chat", "content policy rejection: "+resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, apperror.New(apperror.KindTransient, "gemini.chat", "empty candidates")
	}
	if resp.Candidates[0].FinishReason == "SAFETY" {
		return nil, apperror.New(apperror.KindTerminal, "gemini.chat", "content policy rejection: SAFETY")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	model := resp.ModelVersion
	if model == "" {
		model = opts.Model
	}
	return &llm.Completion{
		Text:             sb.String(),
		Model:            model,
		PromptTokens:     resp.UsageMetadata.PromptTokenCount,
		CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
