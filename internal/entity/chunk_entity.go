package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chunk struct {
	Id                uuid.UUID
	DocumentId        uuid.UUID
	ChunkIndex        int
	Content           string
	StartOffset       int
	EndOffset         int
	EmbeddingProvider string
	Dimensions        int
	CreatedAt         time.Time
}
