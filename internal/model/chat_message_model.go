package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role          string         `gorm:"type:varchar(20);not null"`
	Content       string         `gorm:"type:text;not null"`
	Sources       datatypes.JSON `gorm:"type:jsonb"`
	Model         string         `gorm:"type:varchar(100)"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`

	ChatSession ChatSession `gorm:"foreignKey:ChatSessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

type MessageEvaluation struct {
	Id                 uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId      uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Overall            float64                     `gorm:"type:double precision;not null"`
	Faithfulness       float64                     `gorm:"type:double precision;not null"`
	Relevance          float64                     `gorm:"type:double precision;not null"`
	Completeness       float64                     `gorm:"type:double precision;not null"`
	FaithfulnessIssues datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	RelevanceIssues    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CompletenessIssues datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`

	ChatMessage ChatMessage `gorm:"foreignKey:ChatMessageId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (MessageEvaluation) TableName() string {
	return "message_evaluations"
}
