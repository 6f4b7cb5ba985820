package contract

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/pkg/rag/feedback"
	"ai-docqa-be/pkg/rag/retriever"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	// ReplaceForDocument deletes every chunk of the document and inserts chunks.
	ReplaceForDocument(ctx context.Context, documentId uuid.UUID, chunks []*entity.Chunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	ChunkTexts(ctx context.Context, keys []feedback.ChunkKey) (map[string]retriever.ChunkText, error)
}
