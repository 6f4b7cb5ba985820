package entity

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackScore struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	DocumentId    uuid.UUID
	ChunkIndex    int
	PositiveCount int
	NegativeCount int
	TotalCount    int
	Score         float64
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
