package mapper

import (
	"encoding/json"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/rag/citation"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Title:         s.Title,
		MessageCount:  s.MessageCount,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     timePtr(s.UpdatedAt),
		DeletedAt:     deletedAtPtr(s.DeletedAt),
		IsDeleted:     s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Title:         s.Title,
		MessageCount:  s.MessageCount,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     timeValue(s.UpdatedAt),
		DeletedAt:     toDeletedAt(s.DeletedAt, s.IsDeleted),
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	// a corrupt sources column still yields the message text
	var sources []citation.Source
	if len(msg.Sources) > 0 {
		if err := json.Unmarshal(msg.Sources, &sources); err != nil {
			sources = nil
		}
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Sources:       sources,
		Model:         msg.Model,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     timePtr(msg.UpdatedAt),
		DeletedAt:     deletedAtPtr(msg.DeletedAt),
		IsDeleted:     msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) (*model.ChatMessage, error) {
	if msg == nil {
		return nil, nil
	}

	sources := msg.Sources
	if sources == nil {
		sources = []citation.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Sources:       datatypes.JSON(raw),
		Model:         msg.Model,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     timeValue(msg.UpdatedAt),
		DeletedAt:     toDeletedAt(msg.DeletedAt, msg.IsDeleted),
	}, nil
}

func (m *ChatMapper) ChatMessagesToEntities(msgs []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}

// Evaluation Mappers

func (m *ChatMapper) EvaluationToEntity(e *model.MessageEvaluation) *entity.MessageEvaluation {
	if e == nil {
		return nil
	}
	return &entity.MessageEvaluation{
		Id:                 e.Id,
		ChatMessageId:      e.ChatMessageId,
		Overall:            e.Overall,
		Faithfulness:       e.Faithfulness,
		Relevance:          e.Relevance,
		Completeness:       e.Completeness,
		FaithfulnessIssues: []string(e.FaithfulnessIssues),
		RelevanceIssues:    []string(e.RelevanceIssues),
		CompletenessIssues: []string(e.CompletenessIssues),
		CreatedAt:          e.CreatedAt,
	}
}

func (m *ChatMapper) EvaluationToModel(e *entity.MessageEvaluation) *model.MessageEvaluation {
	if e == nil {
		return nil
	}
	return &model.MessageEvaluation{
		Id:                 e.Id,
		ChatMessageId:      e.ChatMessageId,
		Overall:            e.Overall,
		Faithfulness:       e.Faithfulness,
		Relevance:          e.Relevance,
		Completeness:       e.Completeness,
		FaithfulnessIssues: datatypes.JSONSlice[string](nonNil(e.FaithfulnessIssues)),
		RelevanceIssues:    datatypes.JSONSlice[string](nonNil(e.RelevanceIssues)),
		CompletenessIssues: datatypes.JSONSlice[string](nonNil(e.CompletenessIssues)),
		CreatedAt:          e.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
