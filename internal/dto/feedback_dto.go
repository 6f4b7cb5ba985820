package dto

import (
	"time"

	"github.com/google/uuid"
)

type RecordFeedbackRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
	ChunkIndex *int      `json:"chunk_index" validate:"required,min=0"`
	Positive   *bool     `json:"positive" validate:"required"`
}

type FeedbackResponse struct {
	DocumentId    uuid.UUID  `json:"document_id"`
	ChunkIndex    int        `json:"chunk_index"`
	PositiveCount int        `json:"positive_count"`
	NegativeCount int        `json:"negative_count"`
	TotalCount    int        `json:"total_count"`
	Score         float64    `json:"score"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
