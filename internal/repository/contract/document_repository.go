package contract

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TransitionStatus moves the document to `to` only if its current status
	// is one of `from`. It reports whether this call won the transition.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.DocumentStatus, to entity.DocumentStatus) (bool, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, chunkCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
}
