package specification

import (
	"ai-docqa-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByDocumentStatus struct {
	Statuses []entity.DocumentStatus
}

func (s ByDocumentStatus) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type ByEmbeddingProvider struct {
	Provider string
}

func (s ByEmbeddingProvider) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_provider = ?", s.Provider)
}
