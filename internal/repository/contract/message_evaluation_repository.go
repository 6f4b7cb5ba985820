package contract

import (
	"context"

	"ai-docqa-be/internal/entity"

	"github.com/google/uuid"
)

type MessageEvaluationRepository interface {
	Create(ctx context.Context, evaluation *entity.MessageEvaluation) error
	FindByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageEvaluation, error)
}
