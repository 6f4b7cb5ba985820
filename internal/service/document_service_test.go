package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/rag/chunker"
	"ai-docqa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{ *embedding.MockEmbedder }

func (f failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, apperror.Transient("embed", errors.New("provider unavailable"))
}

// gatedEmbedder blocks EmbedBatch until release is closed.
type gatedEmbedder struct {
	*embedding.MockEmbedder
	entered chan struct{}
	release chan struct{}
}

func (g *gatedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.MockEmbedder.EmbedBatch(ctx, texts)
}

type documentFixture struct {
	store  *store
	index  *vectorindex.MemoryIndex
	queue  *recordingQueue
	events *recordingEvents
	svc    IDocumentService
	user   uuid.UUID
}

func newDocumentFixture(t *testing.T, providers ...embedding.Provider) *documentFixture {
	t.Helper()
	if len(providers) == 0 {
		providers = []embedding.Provider{embedding.NewMockEmbedder("mock", 16)}
	}
	f := &documentFixture{
		store:  newStore(),
		index:  vectorindex.NewMemoryIndex(),
		queue:  &recordingQueue{},
		events: &recordingEvents{},
		user:   uuid.New(),
	}
	f.svc = NewDocumentService(
		f.store,
		embedding.NewRegistry("", providers...),
		f.index,
		chunker.New(chunker.Config{Size: 40, Overlap: 8}),
		f.queue,
		f.events,
		DocumentServiceConfig{EmbeddingBatchSize: 2},
		logger.NewNopLogger(),
	)
	return f
}

func (f *documentFixture) create(t *testing.T, content string) uuid.UUID {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.user, &dto.CreateDocumentRequest{Filename: "notes.txt", Content: content})
	require.NoError(t, err)
	return res.Id
}

func (f *documentFixture) status(t *testing.T, id uuid.UUID) *entity.Document {
	t.Helper()
	docs := f.store.documents
	for _, d := range docs {
		if d.Id == id {
			return d
		}
	}
	t.Fatalf("document %s not stored", id)
	return nil
}

func TestCreateDocumentPinsProvider(t *testing.T) {
	f := newDocumentFixture(t, embedding.NewMockEmbedder("mock", 16), embedding.NewMockEmbedder("alt", 8))

	res, err := f.svc.Create(context.Background(), f.user, &dto.CreateDocumentRequest{Filename: "a.txt", Content: "x", Provider: "alt"})
	require.NoError(t, err)
	assert.Equal(t, "alt", res.EmbeddingProvider)
	assert.Equal(t, string(entity.DocumentStatusUploaded), res.Status)

	res, err = f.svc.Create(context.Background(), f.user, &dto.CreateDocumentRequest{Filename: "b.txt", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "mock", res.EmbeddingProvider)

	_, err = f.svc.Create(context.Background(), f.user, &dto.CreateDocumentRequest{Filename: "c.txt", Content: "x", Provider: "nope"})
	assert.True(t, apperror.Is(err, apperror.KindInput))
}

func TestProcessDocument(t *testing.T) {
	f := newDocumentFixture(t)
	content := strings.Repeat("Refunds are accepted within thirty days. ", 6)
	id := f.create(t, content)

	res, err := f.svc.ProcessDocument(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Empty)
	require.NotEmpty(t, res.Chunks)
	for i, c := range res.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "mock", c.EmbeddingProvider)
		assert.Equal(t, 16, c.Dimensions)
	}

	doc := f.status(t, id)
	assert.Equal(t, entity.DocumentStatusProcessed, doc.Status)
	assert.Equal(t, len(res.Chunks), doc.ChunkCount)
	assert.NotNil(t, doc.ProcessedAt)
	assert.Equal(t, len(res.Chunks), f.index.Count(id, "mock"))
	assert.Len(t, f.store.chunks, len(res.Chunks))
	assert.Equal(t, []string{events.TypeDocumentProcessed}, f.events.types())

	_, err = f.svc.ProcessDocument(context.Background(), id)
	assert.ErrorIs(t, err, ErrDocumentProcessed)
}

func TestProcessEmptyDocument(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, "")

	res, err := f.svc.ProcessDocument(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.Empty)
	assert.Empty(t, res.Chunks)
	assert.Equal(t, entity.DocumentStatusProcessed, f.status(t, id).Status)
	assert.Equal(t, 0, f.index.Count(id, "mock"))
}

func TestProcessDocumentFailureLeavesFailed(t *testing.T) {
	f := newDocumentFixture(t, failingEmbedder{embedding.NewMockEmbedder("mock", 16)})
	id := f.create(t, "some text that needs embedding")

	_, err := f.svc.ProcessDocument(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))

	doc := f.status(t, id)
	assert.Equal(t, entity.DocumentStatusFailed, doc.Status)
	assert.Contains(t, doc.LastError, "provider unavailable")
	assert.Equal(t, []string{events.TypeDocumentFailed}, f.events.types())
	assert.Empty(t, f.store.chunks)
}

func TestProcessDocumentRetryAfterFailure(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, "retry me")
	f.status(t, id).Status = entity.DocumentStatusFailed

	res, err := f.svc.ProcessDocument(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, entity.DocumentStatusProcessed, f.status(t, id).Status)
}

func TestProcessDocumentSingleWinner(t *testing.T) {
	gate := &gatedEmbedder{
		MockEmbedder: embedding.NewMockEmbedder("mock", 16),
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	f := newDocumentFixture(t, gate)
	id := f.create(t, "contended document body")

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.ProcessDocument(context.Background(), id)
		done <- err
	}()

	<-gate.entered
	_, err := f.svc.ProcessDocument(context.Background(), id)
	assert.ErrorIs(t, err, ErrDocumentProcessing)

	close(gate.release)
	require.NoError(t, <-done)
	assert.Equal(t, entity.DocumentStatusProcessed, f.status(t, id).Status)
}

func TestProcessDocumentNotFound(t *testing.T) {
	f := newDocumentFixture(t)
	_, err := f.svc.ProcessDocument(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentOwnership(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, "private")
	stranger := uuid.New()

	_, err := f.svc.Show(context.Background(), stranger, id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	_, err = f.svc.ProcessOwned(context.Background(), stranger, id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, f.svc.Enqueue(context.Background(), stranger, id), ErrDocumentNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), stranger, id), ErrDocumentNotFound)
}

func TestEnqueue(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, "queued")

	require.NoError(t, f.svc.Enqueue(context.Background(), f.user, id))
	assert.Equal(t, []uuid.UUID{id}, f.queue.ids)

	f.status(t, id).Status = entity.DocumentStatusProcessing
	assert.ErrorIs(t, f.svc.Enqueue(context.Background(), f.user, id), ErrDocumentProcessing)
}

func TestDeleteDocumentRemovesVectorsAndFeedback(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, "delete me after processing")
	_, err := f.svc.ProcessDocument(context.Background(), id)
	require.NoError(t, err)

	_, err = f.store.NewUnitOfWork(context.Background()).FeedbackScoreRepository().Increment(context.Background(), f.user, id, 0, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), f.user, id))

	assert.Empty(t, f.store.documents)
	assert.Empty(t, f.store.chunks)
	assert.Empty(t, f.store.scores)
	assert.Equal(t, 0, f.index.Count(id, "mock"))
}

func TestChunksListing(t *testing.T) {
	f := newDocumentFixture(t)
	id := f.create(t, strings.Repeat("abcdefghij ", 10))
	_, err := f.svc.ProcessDocument(context.Background(), id)
	require.NoError(t, err)

	chunks, err := f.svc.Chunks(context.Background(), f.user, id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 0, chunks[0].StartOffset)
}
