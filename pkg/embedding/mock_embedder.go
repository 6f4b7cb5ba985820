package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// MockEmbedder is a deterministic provider for tests and offline runs. Each
// word is hashed into a bucket, so texts sharing vocabulary land close together.
type MockEmbedder struct {
	name string
	dims int
}

func NewMockEmbedder(name string, dims int) *MockEmbedder {
	if name == "" {
		name = "mock"
	}
	if dims <= 0 {
		dims = 64
	}
	return &MockEmbedder{name: name, dims: dims}
}

func (e *MockEmbedder) Name() string    { return e.name }
func (e *MockEmbedder) Dimensions() int { return e.dims }

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dims)] += 1
	}
	if len(words) == 0 {
		vec[0] = 1
	}
	return Normalize(vec), nil
}

func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
