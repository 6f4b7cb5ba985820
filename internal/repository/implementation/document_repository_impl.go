package implementation

import (
	"context"
	"errors"
	"time"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/mapper"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.DocumentStatus, to entity.DocumentStatus) (bool, error) {
	query := applySpecifications(
		r.db.WithContext(ctx).Model(&model.Document{}),
		specification.ByID{ID: id},
		specification.ByDocumentStatus{Statuses: from},
	)
	result := query.Updates(map[string]interface{}{
		"status":     string(to),
		"last_error": "",
	})
	if result.Error != nil {
		return false, classifyPgError("transition document status", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *DocumentRepositoryImpl) MarkProcessed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.DocumentStatusProcessed),
			"chunk_count":  chunkCount,
			"last_error":   "",
			"processed_at": &now,
		}).Error
}

func (r *DocumentRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(entity.DocumentStatusFailed),
			"last_error": reason,
		}).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.Document
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

