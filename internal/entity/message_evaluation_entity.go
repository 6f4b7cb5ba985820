package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageEvaluation struct {
	Id                 uuid.UUID
	ChatMessageId      uuid.UUID
	Overall            float64
	Faithfulness       float64
	Relevance          float64
	Completeness       float64
	FaithfulnessIssues []string
	RelevanceIssues    []string
	CompletenessIssues []string
	CreatedAt          time.Time
}
