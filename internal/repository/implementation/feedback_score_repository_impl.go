package implementation

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/mapper"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/pkg/rag/feedback"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeedbackScoreRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FeedbackMapper
}

func NewFeedbackScoreRepository(db *gorm.DB) contract.FeedbackScoreRepository {
	return &FeedbackScoreRepositoryImpl{
		db:     db,
		mapper: mapper.NewFeedbackMapper(),
	}
}

func (r *FeedbackScoreRepositoryImpl) Increment(ctx context.Context, userId, documentId uuid.UUID, chunkIndex int, positive bool) (*entity.FeedbackScore, error) {
	pos, neg := 0, 1
	if positive {
		pos, neg = 1, 0
	}

	row := &model.FeedbackScore{
		UserId:        userId,
		DocumentId:    documentId,
		ChunkIndex:    chunkIndex,
		PositiveCount: pos,
		NegativeCount: neg,
		TotalCount:    1,
		Score:         feedback.Normalize(pos, neg),
	}

	// counts and score are recomputed from the stored row in the same statement
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "document_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"positive_count": gorm.Expr("feedback_scores.positive_count + EXCLUDED.positive_count"),
			"negative_count": gorm.Expr("feedback_scores.negative_count + EXCLUDED.negative_count"),
			"total_count":    gorm.Expr("feedback_scores.total_count + 1"),
			"score": gorm.Expr(
				"(feedback_scores.positive_count + EXCLUDED.positive_count - feedback_scores.negative_count - EXCLUDED.negative_count)::double precision / (feedback_scores.total_count + 1)",
			),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, classifyPgError("record feedback", err)
	}

	var stored model.FeedbackScore
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ? AND chunk_index = ?", userId, documentId, chunkIndex).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&stored), nil
}

// ScoresFor implements feedback.Scorer.
func (r *FeedbackScoreRepositoryImpl) ScoresFor(ctx context.Context, userId uuid.UUID, keys []feedback.ChunkKey) (map[string]feedback.Score, error) {
	out := make(map[string]feedback.Score, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	wanted := make(map[string]struct{}, len(keys))
	seen := make(map[uuid.UUID]struct{})
	var docIDs []uuid.UUID
	for _, k := range keys {
		wanted[k.String()] = struct{}{}
		if _, ok := seen[k.DocumentID]; !ok {
			seen[k.DocumentID] = struct{}{}
			docIDs = append(docIDs, k.DocumentID)
		}
	}

	var rows []*model.FeedbackScore
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id IN ?", userId, docIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		key := feedback.Key(row.DocumentId, row.ChunkIndex)
		if _, ok := wanted[key]; ok {
			out[key] = r.mapper.ToScore(row)
		}
	}
	return out, nil
}

func (r *FeedbackScoreRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.FeedbackScore{}).Error
}
