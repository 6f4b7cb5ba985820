package dto

import (
	"time"

	"ai-docqa-be/pkg/rag/citation"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type AskRequest struct {
	ChatSessionId *uuid.UUID  `json:"chat_session_id"`
	Question      string      `json:"question" validate:"required,max=4000"`
	DocumentIds   []uuid.UUID `json:"document_ids" validate:"max=50"`
	Provider      string      `json:"provider" validate:"omitempty,max=50"`
	TopK          int         `json:"top_k" validate:"omitempty,min=1,max=20"`
}

type CheckResponse struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

type EvaluationResponse struct {
	Overall      float64       `json:"overall"`
	Faithfulness CheckResponse `json:"faithfulness"`
	Relevance    CheckResponse `json:"relevance"`
	Completeness CheckResponse `json:"completeness"`
	Skipped      bool          `json:"skipped"`
}

type AskResponse struct {
	ChatSessionId    uuid.UUID           `json:"chat_session_id"`
	ChatSessionTitle string              `json:"title"`
	MessageId        uuid.UUID           `json:"message_id"`
	Answer           string              `json:"answer"`
	RenderedAnswer   string              `json:"rendered_answer"`
	Sources          []citation.Source   `json:"sources"`
	Evaluation       *EvaluationResponse `json:"evaluation"`
	Category         string              `json:"category"`
	Model            string              `json:"model"`
}

type ChatMessageResponse struct {
	Id         uuid.UUID           `json:"id"`
	Role       string              `json:"role"`
	Content    string              `json:"content"`
	Sources    []citation.Source   `json:"sources,omitempty"`
	Model      string              `json:"model,omitempty"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
