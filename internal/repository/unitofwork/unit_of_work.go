package unitofwork

import (
	"context"
	"fmt"

	"ai-docqa-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	FeedbackScoreRepository() contract.FeedbackScoreRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	MessageEvaluationRepository() contract.MessageEvaluationRepository
}

// Run executes fn in one transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func Run(ctx context.Context, f RepositoryFactory, fn func(uow UnitOfWork) error) error {
	uow := f.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(uow); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}
