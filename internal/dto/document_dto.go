package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	// Provider is the embedding provider tag; empty selects the default.
	Provider string `json:"provider" validate:"omitempty,max=50"`
}

type DocumentResponse struct {
	Id                uuid.UUID  `json:"id"`
	Filename          string     `json:"filename"`
	Status            string     `json:"status"`
	EmbeddingProvider string     `json:"embedding_provider"`
	ChunkCount        int        `json:"chunk_count"`
	LastError         string     `json:"last_error,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

type ChunkResponse struct {
	ChunkIndex  int    `json:"chunk_index"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Provider    string `json:"provider"`
	Dimensions  int    `json:"dimensions"`
}

type ProcessDocumentResponse struct {
	Success    bool            `json:"success"`
	DocumentId uuid.UUID       `json:"document_id"`
	Empty      bool            `json:"empty"`
	Chunks     []ChunkResponse `json:"chunks"`
}

// PublishProcessDocumentMessage is the watermill payload for async processing.
type PublishProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
