package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Filename          string
	Content           string
	Status            DocumentStatus
	EmbeddingProvider string
	ChunkCount        int
	LastError         string
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	DeletedAt         *time.Time
	IsDeleted         bool
}

// Processable reports whether a processing run may start from the current status.
func (d *Document) Processable() bool {
	return d.Status == DocumentStatusUploaded || d.Status == DocumentStatusFailed
}
