package service

import (
	"context"
	"fmt"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/internal/repository/unitofwork"
	"ai-docqa-be/pkg/apperror"

	"github.com/google/uuid"
)

type IFeedbackService interface {
	Record(ctx context.Context, userId uuid.UUID, req *dto.RecordFeedbackRequest) (*dto.FeedbackResponse, error)
}

type feedbackService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewFeedbackService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IFeedbackService {
	return &feedbackService{uowFactory: uowFactory, logger: log}
}

// Record adds one vote for a chunk the user can see and returns the new aggregate.
func (s *feedbackService) Record(ctx context.Context, userId uuid.UUID, req *dto.RecordFeedbackRequest) (*dto.FeedbackResponse, error) {
	if req.ChunkIndex == nil || req.Positive == nil {
		return nil, apperror.New(apperror.KindInput, "record feedback", "chunk_index and positive are required")
	}
	chunkIndex := *req.ChunkIndex

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.DocumentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	count, err := uow.DocumentChunkRepository().Count(ctx,
		specification.ByDocumentID{DocumentID: doc.Id},
		specification.Filter("chunk_index", chunkIndex),
	)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperror.New(apperror.KindNotFound, "record feedback", fmt.Sprintf("chunk %d not found", chunkIndex))
	}

	score, err := uow.FeedbackScoreRepository().Increment(ctx, userId, doc.Id, chunkIndex, *req.Positive)
	if err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}

	s.logger.Info("FEEDBACK", "Feedback recorded", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunk_index": chunkIndex,
		"positive":    *req.Positive,
		"score":       score.Score,
	})

	return &dto.FeedbackResponse{
		DocumentId:    score.DocumentId,
		ChunkIndex:    score.ChunkIndex,
		PositiveCount: score.PositiveCount,
		NegativeCount: score.NegativeCount,
		TotalCount:    score.TotalCount,
		Score:         score.Score,
		UpdatedAt:     score.UpdatedAt,
	}, nil
}
