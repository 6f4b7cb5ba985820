package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ai-docqa-be/pkg/apperror"

	"github.com/ollama/ollama/api"
)

// OllamaProvider embeds through a local Ollama server (e.g. nomic-embed-text)
// using its native batch endpoint.
type OllamaProvider struct {
	client *api.Client
	model  string
	dims   int
}

func NewOllamaProvider(baseURL, model string, dims int) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if dims <= 0 {
		dims = 768
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	return &OllamaProvider{
		client: api.NewClient(u, &http.Client{Timeout: 60 * time.Second}),
		model:  model,
		dims:   dims,
	}, nil
}

func (p *OllamaProvider) Name() string    { return "ollama" }
func (p *OllamaProvider) Dimensions() int { return p.dims }

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, p, text)
}

func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model: p.model,
		Input: texts,
	})
	if err != nil {
		return nil, classifyOllamaError("ollama.embed", err)
	}

	return CheckBatch(p.Name(), p.dims, len(texts), resp.Embeddings)
}

// classifyOllamaError maps an ollama client error onto an apperror kind.
func classifyOllamaError(op string, err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return apperror.FromStatus(op, statusErr.StatusCode, statusErr.ErrorMessage)
	}
	if errors.Is(err, context.Canceled) {
		return apperror.Terminal(op, err)
	}
	// connection refused and friends surface as plain url errors
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apperror.Transient(op, err)
	}
	return apperror.Wrap(apperror.KindOf(err), op, err)
}
