package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ai-docqa-be/pkg/httpjson"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

type GeminiOption func(*GeminiProvider)

func WithGeminiBaseURL(u string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = u }
}

func WithGeminiModel(model string, dims int) GeminiOption {
	return func(p *GeminiProvider) {
		p.model = model
		p.dims = dims
	}
}

func NewGeminiProvider(apiKey string, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		model:   "text-embedding-004",
		dims:    768,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GeminiProvider) Name() string    { return "gemini" }
func (p *GeminiProvider) Dimensions() int { return p.dims }

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.batch(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return p.batch(ctx, texts, TaskRetrievalDocument)
}

func (p *GeminiProvider) batch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	modelPath := "models/" + p.model

	req := BatchEmbeddingRequest{Requests: make([]EmbeddingRequest, len(texts))}
	for i, text := range texts {
		req.Requests[i] = EmbeddingRequest{
			Model:    modelPath,
			Content:  EmbeddingRequestContent{Parts: []EmbeddingRequestContentPart{{Text: text}}},
			TaskType: taskType,
		}
	}

	endpoint := fmt.Sprintf("%s/%s:batchEmbedContents", p.baseURL, modelPath)
	headers := map[string]string{"x-goog-api-key": p.apiKey}

	var resp BatchEmbeddingResponse
	if err := httpjson.Post(ctx, p.client, "gemini.embed", endpoint, headers, req, &resp); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return CheckBatch(p.Name(), p.dims, len(texts), vectors)
}
