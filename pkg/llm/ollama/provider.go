package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/llm"

	"github.com/ollama/ollama/api"
)

type OllamaProvider struct {
	client    *api.Client
	modelName string
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return &OllamaProvider{
		client:    api.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
		modelName: modelName,
	}, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	options := llm.Apply(llm.Options{Temperature: 0.7, Model: o.modelName}, opts...)

	messages := make([]api.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = api.Message{Role: role, Content: msg.Content}
	}

	modelOptions := map[string]any{"temperature": options.Temperature}
	if options.MaxTokens > 0 {
		modelOptions["num_predict"] = options.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  modelOptions,
	}
	if options.JSON {
		req.Format = json.RawMessage(`"json"`)
	}

	var (
		sb   strings.Builder
		last api.ChatResponse
	)
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return &llm.Completion{
		Text:             sb.String(),
		Model:            options.Model,
		PromptTokens:     last.PromptEvalCount,
		CompletionTokens: last.EvalCount,
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Completion, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func classify(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return apperror.FromStatus("ollama.chat", statusErr.StatusCode, statusErr.ErrorMessage)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && !errors.Is(err, context.Canceled) {
		return apperror.Transient("ollama.chat", err)
	}
	return apperror.Wrap(apperror.KindOf(err), "ollama.chat", err)
}
