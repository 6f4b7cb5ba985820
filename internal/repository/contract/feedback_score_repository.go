package contract

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/pkg/rag/feedback"

	"github.com/google/uuid"
)

type FeedbackScoreRepository interface {
	// Increment records one vote and recomputes the normalized score in a
	// single upsert.
	Increment(ctx context.Context, userId, documentId uuid.UUID, chunkIndex int, positive bool) (*entity.FeedbackScore, error)
	ScoresFor(ctx context.Context, userId uuid.UUID, keys []feedback.ChunkKey) (map[string]feedback.Score, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
