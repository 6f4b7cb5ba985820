package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Filename          string         `gorm:"type:text;not null"`
	Content           string         `gorm:"type:text"`
	Status            string         `gorm:"type:varchar(20);not null;default:'uploaded';index"`
	EmbeddingProvider string         `gorm:"type:varchar(50);not null"`
	ChunkCount        int            `gorm:"default:0"`
	LastError         string         `gorm:"type:text"`
	ProcessedAt       *time.Time
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
