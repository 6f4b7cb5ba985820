package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/internal/repository/unitofwork"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/rag/citation"
	"ai-docqa-be/pkg/rag/evaluator"
	"ai-docqa-be/pkg/rag/pipeline"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrInvalidRole     = errors.New("message role must be user or assistant")
)

const (
	chatModule           = "CHAT"
	defaultHistoryWindow = 6
	sessionTitleRunes    = 60
	defaultSessionTitle  = "New chat"
)

// AppendMessageInput is one message to persist. Assistant content keeps its
// {{cite:N}} placeholders; Sources is the ordered list they resolve against.
type AppendMessageInput struct {
	SessionID uuid.UUID
	Role      string
	Content   string
	Sources   []citation.Source
	Model     string
}

// Answerer runs the query pipeline.
type Answerer interface {
	Answer(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error)
	AppendMessage(ctx context.Context, in AppendMessageInput) (*entity.ChatMessage, error)
}

type ChatServiceConfig struct {
	HistoryWindow int
	TopK          int
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	answerer   Answerer
	registry   *embedding.Registry
	events     events.Publisher
	cfg        ChatServiceConfig
	logger     logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	answerer Answerer,
	registry *embedding.Registry,
	eventPublisher events.Publisher,
	cfg ChatServiceConfig,
	log logger.ILogger,
) IChatService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &chatService{
		uowFactory: uowFactory,
		answerer:   answerer,
		registry:   registry,
		events:     eventPublisher,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	session := &entity.ChatSession{UserId: userId, Title: title}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return &dto.CreateSessionResponse{Id: session.Id, Title: session.Title}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		res[i] = &dto.GetAllSessionsResponse{
			Id:            session.Id,
			Title:         session.Title,
			MessageCount:  session.MessageCount,
			LastMessageAt: session.LastMessageAt,
			CreatedAt:     session.CreatedAt,
			UpdatedAt:     session.UpdatedAt,
		}
	}
	return res, nil
}

func (s *chatService) GetMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	if _, err := s.findSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		ids[i] = m.Id
	}
	evaluations, err := uow.MessageEvaluationRepository().FindByMessageIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byMessage := make(map[uuid.UUID]*entity.MessageEvaluation, len(evaluations))
	for _, e := range evaluations {
		byMessage[e.ChatMessageId] = e
	}

	res := make([]*dto.ChatMessageResponse, len(messages))
	for i, m := range messages {
		res[i] = &dto.ChatMessageResponse{
			Id:         m.Id,
			Role:       m.Role,
			Content:    m.Content,
			Sources:    m.Sources,
			Model:      m.Model,
			Evaluation: storedEvaluationResponse(byMessage[m.Id]),
			CreatedAt:  m.CreatedAt,
		}
	}
	return res, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	if _, err := s.findSession(ctx, userId, sessionId); err != nil {
		return err
	}

	return unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
			return err
		}
		return uow.ChatSessionRepository().Delete(ctx, sessionId)
	})
}

// AppendMessage persists one message and records it on the session in the
// same transaction.
func (s *chatService) AppendMessage(ctx context.Context, in AppendMessageInput) (*entity.ChatMessage, error) {
	var msg *entity.ChatMessage
	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		var err error
		msg, err = appendMessage(ctx, uow, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func appendMessage(ctx context.Context, uow unitofwork.UnitOfWork, in AppendMessageInput) (*entity.ChatMessage, error) {
	if in.Role != constant.ChatMessageRoleUser && in.Role != constant.ChatMessageRoleAssistant {
		return nil, apperror.Wrap(apperror.KindInput, "append message", ErrInvalidRole)
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: in.SessionID})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	msg := &entity.ChatMessage{
		ChatSessionId: in.SessionID,
		Role:          in.Role,
		Content:       in.Content,
		Sources:       in.Sources,
		Model:         in.Model,
	}
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if err := uow.ChatSessionRepository().RecordMessage(ctx, in.SessionID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to update session activity: %w", err)
	}
	return msg, nil
}

func (s *chatService) Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperror.New(apperror.KindInput, "ask", "question is empty")
	}

	provider := strings.TrimSpace(req.Provider)
	if _, err := s.registry.Get(provider); err != nil {
		return nil, apperror.Wrap(apperror.KindInput, "ask", err)
	}
	if provider == "" {
		provider = s.registry.Default()
	}

	session, err := s.resolveSession(ctx, userId, req.ChatSessionId, question)
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	scope, err := s.scope(ctx, userId, provider, req.DocumentIds)
	if err != nil {
		return nil, err
	}

	if _, err := s.AppendMessage(ctx, AppendMessageInput{
		SessionID: session.Id,
		Role:      constant.ChatMessageRoleUser,
		Content:   question,
	}); err != nil {
		return nil, err
	}

	resp, err := s.answerer.Answer(ctx, pipeline.Request{
		UserID:      userId,
		Query:       question,
		DocumentIDs: scope,
		Provider:    provider,
		TopK:        firstPositive(req.TopK, s.cfg.TopK),
		History:     history,
	})
	if err != nil {
		s.logger.Error(chatModule, "Answer pipeline failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"kind":       string(apperror.KindOf(err)),
			"error":      err.Error(),
		})
		return nil, err
	}

	reply, err := s.persistAnswer(ctx, session.Id, resp)
	if err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, events.AnswerGenerated(
		userId, session.Id, reply.Id, string(resp.Category), resp.Evaluation.Overall, len(resp.Sources),
	)); err != nil {
		s.logger.Warn(chatModule, "Failed to publish answer event", map[string]interface{}{"error": err.Error()})
	}

	return &dto.AskResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		MessageId:        reply.Id,
		Answer:           resp.Answer,
		RenderedAnswer:   citation.RenderText(resp.Answer, resp.Sources),
		Sources:          nonNilSources(resp.Sources),
		Evaluation:       evaluationResponse(resp.Evaluation),
		Category:         string(resp.Category),
		Model:            resp.Model,
	}, nil
}

func (s *chatService) persistAnswer(ctx context.Context, sessionId uuid.UUID, resp *pipeline.Response) (*entity.ChatMessage, error) {
	var reply *entity.ChatMessage
	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		var err error
		reply, err = appendMessage(ctx, uow, AppendMessageInput{
			SessionID: sessionId,
			Role:      constant.ChatMessageRoleAssistant,
			Content:   resp.Answer,
			Sources:   resp.Sources,
			Model:     resp.Model,
		})
		if err != nil {
			return err
		}
		if resp.Evaluation.Skipped {
			return nil
		}

		ev := resp.Evaluation
		if err := uow.MessageEvaluationRepository().Create(ctx, &entity.MessageEvaluation{
			ChatMessageId:      reply.Id,
			Overall:            ev.Overall,
			Faithfulness:       ev.Faithfulness.Score,
			Relevance:          ev.Relevance.Score,
			Completeness:       ev.Completeness.Score,
			FaithfulnessIssues: ev.Faithfulness.Issues,
			RelevanceIssues:    ev.Relevance.Issues,
			CompletenessIssues: ev.Completeness.Issues,
		}); err != nil {
			return fmt.Errorf("failed to store evaluation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *chatService) resolveSession(ctx context.Context, userId uuid.UUID, sessionId *uuid.UUID, question string) (*entity.ChatSession, error) {
	if sessionId != nil && *sessionId != uuid.Nil {
		return s.findSession(ctx, userId, *sessionId)
	}

	session := &entity.ChatSession{UserId: userId, Title: SessionTitle(question)}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// history returns the recent turns as LLM messages with citations rendered,
// so earlier answers read naturally to the model.
func (s *chatService) history(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	recent, err := uow.ChatMessageRepository().FindRecent(ctx, sessionId, s.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		role := llm.RoleUser
		content := m.Content
		if m.Role == constant.ChatMessageRoleAssistant {
			role = llm.RoleAssistant
			content = citation.RenderText(m.Content, m.Sources)
		}
		out = append(out, llm.Message{Role: role, Content: content})
	}
	return out, nil
}

// scope narrows the requested documents to processed ones the user owns that
// were embedded with provider. No request list means every such document.
func (s *chatService) scope(ctx context.Context, userId uuid.UUID, provider string, requested []uuid.UUID) ([]uuid.UUID, error) {
	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ByDocumentStatus{Statuses: []entity.DocumentStatus{entity.DocumentStatusProcessed}},
		specification.ByEmbeddingProvider{Provider: provider},
	}
	if len(requested) > 0 {
		specs = append(specs, specification.ByIDs{IDs: requested})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		ids[i] = d.Id
	}
	if len(requested) > 0 && len(ids) < len(requested) {
		s.logger.Debug(chatModule, "Scope narrowed", map[string]interface{}{
			"requested": len(requested),
			"usable":    len(ids),
			"provider":  provider,
		})
	}
	return ids, nil
}

func (s *chatService) findSession(ctx context.Context, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SessionTitle derives a session title from the first question.
func SessionTitle(question string) string {
	title := strings.Join(strings.Fields(question), " ")
	if title == "" {
		return defaultSessionTitle
	}
	if utf8.RuneCountInString(title) <= sessionTitleRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:sessionTitleRunes])) + "..."
}

func evaluationResponse(r evaluator.Result) *dto.EvaluationResponse {
	return &dto.EvaluationResponse{
		Overall:      r.Overall,
		Faithfulness: dto.CheckResponse{Score: r.Faithfulness.Score, Issues: nonNilIssues(r.Faithfulness.Issues)},
		Relevance:    dto.CheckResponse{Score: r.Relevance.Score, Issues: nonNilIssues(r.Relevance.Issues)},
		Completeness: dto.CheckResponse{Score: r.Completeness.Score, Issues: nonNilIssues(r.Completeness.Issues)},
		Skipped:      r.Skipped,
	}
}

func storedEvaluationResponse(e *entity.MessageEvaluation) *dto.EvaluationResponse {
	if e == nil {
		return nil
	}
	return &dto.EvaluationResponse{
		Overall:      e.Overall,
		Faithfulness: dto.CheckResponse{Score: e.Faithfulness, Issues: nonNilIssues(e.FaithfulnessIssues)},
		Relevance:    dto.CheckResponse{Score: e.Relevance, Issues: nonNilIssues(e.RelevanceIssues)},
		Completeness: dto.CheckResponse{Score: e.Completeness, Issues: nonNilIssues(e.CompletenessIssues)},
	}
}

func nonNilIssues(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}

func nonNilSources(sources []citation.Source) []citation.Source {
	if sources == nil {
		return []citation.Source{}
	}
	return sources
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
