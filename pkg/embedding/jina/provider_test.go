package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatchRestoresOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,3]},{"index":0,"embedding":[4,0]}]}`))
	}))
	defer srv.Close()

	p := NewJinaProvider("secret").WithBaseURL(srv.URL)
	p.dims = 2

	vecs, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedBatchApiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	_, err := NewJinaProvider("k").WithBaseURL(srv.URL).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "quota")
}
