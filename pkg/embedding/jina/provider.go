package jina

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/httpjson"
)

const defaultBaseURL = "https://api.jina.ai/v1/embeddings"

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   "jina-embeddings-v2-base-en",
		dims:    768,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL points the provider at another endpoint.
func (p *JinaProvider) WithBaseURL(u string) *JinaProvider {
	p.baseURL = u
	return p
}

func (p *JinaProvider) Name() string    { return "jina" }
func (p *JinaProvider) Dimensions() int { return p.dims }

func (p *JinaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *JinaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	headers := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", p.apiKey)}
	var resp embeddingResponse
	if err := httpjson.Post(ctx, p.client, "jina.embed", p.baseURL, headers, embeddingRequest{Model: p.model, Input: texts}, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, apperror.New(apperror.KindTerminal, "jina.embed", resp.Error.Message)
	}

	// data carries its own index; do not trust response order
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return embedding.CheckBatch(p.Name(), p.dims, len(texts), vectors)
}
