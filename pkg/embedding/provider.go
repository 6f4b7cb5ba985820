package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrBatchMismatch     = errors.New("embedding batch size mismatch")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
)

// Provider turns text into fixed-size vectors. Dimensions is declared up
// front and every vector a provider returns has exactly that length.
type Provider interface {
	Name() string
	Dimensions() int
	// Embed embeds a single query-side text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds document-side texts, preserving input order.
	// A failure on any item fails the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CheckBatch verifies a provider response against its request and
// normalizes every vector in place.
func CheckBatch(provider string, dims int, inputs int, vectors [][]float32) ([][]float32, error) {
	if len(vectors) != inputs {
		return nil, fmt.Errorf("%s: got %d vectors for %d inputs: %w", provider, len(vectors), inputs, ErrBatchMismatch)
	}
	for i, v := range vectors {
		if dims > 0 && len(v) != dims {
			return nil, fmt.Errorf("%s: vector %d has %d dims, want %d: %w", provider, i, len(v), dims, ErrDimensionMismatch)
		}
		vectors[i] = Normalize(v)
	}
	return vectors, nil
}

// Normalize scales vec to unit length. Zero vectors are returned as is.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// embedOne runs a single text through EmbedBatch.
func embedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
