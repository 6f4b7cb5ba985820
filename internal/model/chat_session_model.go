package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession groups the turns of one conversation over a user's documents.
type ChatSession struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index:idx_chat_sessions_user_activity,priority:1"`
	Title         string         `gorm:"type:varchar(255);not null"`
	MessageCount  int            `gorm:"not null;default:0"`
	LastMessageAt *time.Time     `gorm:"type:timestamptz"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime;index:idx_chat_sessions_user_activity,priority:2,sort:desc"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
