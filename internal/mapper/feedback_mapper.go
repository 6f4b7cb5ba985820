package mapper

import (
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/rag/feedback"
)

type FeedbackMapper struct{}

func NewFeedbackMapper() *FeedbackMapper {
	return &FeedbackMapper{}
}

func (m *FeedbackMapper) ToEntity(f *model.FeedbackScore) *entity.FeedbackScore {
	if f == nil {
		return nil
	}
	return &entity.FeedbackScore{
		Id:            f.Id,
		UserId:        f.UserId,
		DocumentId:    f.DocumentId,
		ChunkIndex:    f.ChunkIndex,
		PositiveCount: f.PositiveCount,
		NegativeCount: f.NegativeCount,
		TotalCount:    f.TotalCount,
		Score:         f.Score,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     timePtr(f.UpdatedAt),
	}
}

// ToScore converts a stored row to the aggregate the reranker reads.
func (m *FeedbackMapper) ToScore(f *model.FeedbackScore) feedback.Score {
	return feedback.Sanitize(feedback.Score{
		Positive: f.PositiveCount,
		Negative: f.NegativeCount,
		Total:    f.TotalCount,
		Value:    f.Score,
	})
}
