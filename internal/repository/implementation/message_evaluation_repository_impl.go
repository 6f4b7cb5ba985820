package implementation

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/mapper"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageEvaluationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageEvaluationRepository(db *gorm.DB) contract.MessageEvaluationRepository {
	return &MessageEvaluationRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageEvaluationRepositoryImpl) Create(ctx context.Context, evaluation *entity.MessageEvaluation) error {
	m := r.mapper.EvaluationToModel(evaluation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*evaluation = *r.mapper.EvaluationToEntity(m)
	return nil
}

func (r *MessageEvaluationRepositoryImpl) FindByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageEvaluation, error) {
	if len(messageIds) == 0 {
		return []*entity.MessageEvaluation{}, nil
	}
	var models []*model.MessageEvaluation
	query := applySpecifications(r.db.WithContext(ctx), specification.ByChatMessageIDs{ChatMessageIDs: messageIds})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageEvaluation, len(models))
	for i, m := range models {
		entities[i] = r.mapper.EvaluationToEntity(m)
	}
	return entities, nil
}
