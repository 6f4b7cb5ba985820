package model

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackScore struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_key"`
	DocumentId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_key"`
	ChunkIndex    int       `gorm:"not null;uniqueIndex:idx_feedback_key"`
	PositiveCount int       `gorm:"not null;default:0"`
	NegativeCount int       `gorm:"not null;default:0"`
	TotalCount    int       `gorm:"not null;default:0"`
	Score         float64   `gorm:"type:double precision;not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (FeedbackScore) TableName() string {
	return "feedback_scores"
}
