package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/rag/citation"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/evaluator"
	"ai-docqa-be/pkg/rag/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	requests []pipeline.Request
	resp     *pipeline.Response
	err      error
}

func (a *fakeAnswerer) Answer(ctx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}
	cp := *a.resp
	return &cp, nil
}

type chatFixture struct {
	store    *store
	answerer *fakeAnswerer
	events   *recordingEvents
	svc      IChatService
	user     uuid.UUID
	doc      uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		store:  newStore(),
		events: &recordingEvents{},
		user:   uuid.New(),
		doc:    uuid.New(),
	}
	f.answerer = &fakeAnswerer{resp: &pipeline.Response{
		Answer: "Refunds are accepted within 30 days {{cite:1}}.",
		Sources: []citation.Source{
			{DocumentID: f.doc, Filename: "policy.txt", ChunkIndex: 0, Score: 0.91, Preview: "Refunds are accepted"},
		},
		Evaluation: evaluator.Result{
			Overall:      0.9,
			Faithfulness: evaluator.CheckResult{Score: 1},
			Relevance:    evaluator.CheckResult{Score: 0.9},
			Completeness: evaluator.CheckResult{Score: 0.76, Issues: []string{"no mention of exceptions"}},
		},
		Category: classifier.KnowledgeSeeking,
		Model:    "mock-model",
	}}

	f.store.documents = append(f.store.documents,
		&entity.Document{Id: f.doc, UserId: f.user, Filename: "policy.txt", Status: entity.DocumentStatusProcessed, EmbeddingProvider: "mock"},
		&entity.Document{Id: uuid.New(), UserId: f.user, Filename: "draft.txt", Status: entity.DocumentStatusUploaded, EmbeddingProvider: "mock"},
		&entity.Document{Id: uuid.New(), UserId: f.user, Filename: "other.txt", Status: entity.DocumentStatusProcessed, EmbeddingProvider: "alt"},
		&entity.Document{Id: uuid.New(), UserId: uuid.New(), Filename: "foreign.txt", Status: entity.DocumentStatusProcessed, EmbeddingProvider: "mock"},
	)

	registry := embedding.NewRegistry("mock", embedding.NewMockEmbedder("mock", 8), embedding.NewMockEmbedder("alt", 8))
	f.svc = NewChatService(f.store, f.answerer, registry, f.events, ChatServiceConfig{HistoryWindow: 2, TopK: 5}, logger.NewNopLogger())
	return f
}

func TestAskCreatesSessionAndPersistsTurn(t *testing.T) {
	f := newChatFixture(t)

	res, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "  What is the refund window?  "})
	require.NoError(t, err)

	assert.Equal(t, "What is the refund window?", res.ChatSessionTitle)
	assert.Equal(t, "Refunds are accepted within 30 days {{cite:1}}.", res.Answer)
	assert.Equal(t, "Refunds are accepted within 30 days [1: policy.txt].", res.RenderedAnswer)
	assert.Equal(t, string(classifier.KnowledgeSeeking), res.Category)
	require.NotNil(t, res.Evaluation)
	assert.InDelta(t, 0.9, res.Evaluation.Overall, 1e-9)
	assert.Equal(t, []string{}, res.Evaluation.Faithfulness.Issues)

	require.Len(t, f.answerer.requests, 1)
	req := f.answerer.requests[0]
	assert.Equal(t, "What is the refund window?", req.Query)
	assert.Equal(t, "mock", req.Provider)
	assert.Equal(t, 5, req.TopK)
	assert.Equal(t, []uuid.UUID{f.doc}, req.DocumentIDs)
	assert.Empty(t, req.History)

	require.Len(t, f.store.messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, f.store.messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, f.store.messages[1].Role)
	assert.Equal(t, res.MessageId, f.store.messages[1].Id)
	assert.Len(t, f.store.messages[1].Sources, 1)
	assert.Equal(t, 2, f.store.sessions[0].MessageCount)

	require.Len(t, f.store.evaluations, 1)
	assert.Equal(t, res.MessageId, f.store.evaluations[0].ChatMessageId)
	assert.Equal(t, []string{"no mention of exceptions"}, f.store.evaluations[0].CompletenessIssues)

	assert.Equal(t, []string{events.TypeAnswerGenerated}, f.events.types())
}

func TestAskUsesRenderedHistoryWindow(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ask(ctx, f.user, &dto.AskRequest{Question: "What is the refund window?"})
	require.NoError(t, err)

	_, err = f.svc.Ask(ctx, f.user, &dto.AskRequest{ChatSessionId: &first.ChatSessionId, Question: "And for sale items?"})
	require.NoError(t, err)

	require.Len(t, f.answerer.requests, 2)
	history := f.answerer.requests[1].History
	require.Len(t, history, 2)
	assert.Equal(t, llm.RoleUser, history[0].Role)
	assert.Equal(t, "What is the refund window?", history[0].Content)
	assert.Equal(t, llm.RoleAssistant, history[1].Role)
	assert.Equal(t, "Refunds are accepted within 30 days [1: policy.txt].", history[1].Content)
	assert.Len(t, f.store.sessions, 1)
}

func TestAskScope(t *testing.T) {
	f := newChatFixture(t)
	foreign := f.store.documents[3].Id

	_, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{
		Question:    "Anything?",
		DocumentIds: []uuid.UUID{foreign, f.doc},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.doc}, f.answerer.requests[0].DocumentIDs)

	_, err = f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "Anything?", Provider: "alt"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.store.documents[2].Id}, f.answerer.requests[1].DocumentIDs)
}

func TestAskRejectsBadInput(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "   "})
	assert.True(t, apperror.Is(err, apperror.KindInput))

	_, err = f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "hi", Provider: "unknown"})
	assert.True(t, apperror.Is(err, apperror.KindInput))

	missing := uuid.New()
	_, err = f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "hi", ChatSessionId: &missing})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Empty(t, f.answerer.requests)
}

func TestAskSkippedEvaluationIsNotStored(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.resp.Answer = "Hello! How can I help?"
	f.answerer.resp.Sources = nil
	f.answerer.resp.Category = classifier.Conversational
	f.answerer.resp.Evaluation = evaluator.Perfect()

	res, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "hello"})
	require.NoError(t, err)

	assert.True(t, res.Evaluation.Skipped)
	assert.Equal(t, []citation.Source{}, res.Sources)
	assert.Empty(t, f.store.evaluations)
}

func TestAskPipelineFailureKeepsQuestion(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.err = apperror.Transient("generate", errors.New("timeout"))

	_, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "What is the refund window?"})
	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))

	require.Len(t, f.store.messages, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, f.store.messages[0].Role)
	assert.Empty(t, f.events.types())
}

func TestGetMessagesAttachesEvaluation(t *testing.T) {
	f := newChatFixture(t)
	res, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "What is the refund window?"})
	require.NoError(t, err)

	messages, err := f.svc.GetMessages(context.Background(), f.user, res.ChatSessionId)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Nil(t, messages[0].Evaluation)
	require.NotNil(t, messages[1].Evaluation)
	assert.InDelta(t, 0.76, messages[1].Evaluation.Completeness.Score, 1e-9)

	_, err = f.svc.GetMessages(context.Background(), uuid.New(), res.ChatSessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendMessage(t *testing.T) {
	f := newChatFixture(t)
	session, err := f.svc.CreateSession(context.Background(), f.user, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, defaultSessionTitle, session.Title)

	_, err = f.svc.AppendMessage(context.Background(), AppendMessageInput{SessionID: session.Id, Role: "system", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.svc.AppendMessage(context.Background(), AppendMessageInput{SessionID: uuid.New(), Role: constant.ChatMessageRoleUser, Content: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	msg, err := f.svc.AppendMessage(context.Background(), AppendMessageInput{SessionID: session.Id, Role: constant.ChatMessageRoleUser, Content: "x"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.Id)
	assert.Equal(t, 1, f.store.sessions[0].MessageCount)
	require.NotNil(t, f.store.sessions[0].LastMessageAt)
	assert.Equal(t, msg.CreatedAt, *f.store.sessions[0].LastMessageAt)
}

func TestDeleteSession(t *testing.T) {
	f := newChatFixture(t)
	res, err := f.svc.Ask(context.Background(), f.user, &dto.AskRequest{Question: "What is the refund window?"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteSession(context.Background(), uuid.New(), res.ChatSessionId), ErrSessionNotFound)
	require.NoError(t, f.svc.DeleteSession(context.Background(), f.user, res.ChatSessionId))
	assert.Empty(t, f.store.sessions)
	assert.Empty(t, f.store.messages)
}

func TestSessionTitle(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"short", "What is RAG?", "What is RAG?"},
		{"whitespace collapsed", "  what\n\tis   this ", "what is this"},
		{"empty", "   ", defaultSessionTitle},
		{"long", strings.Repeat("é", 70), strings.Repeat("é", sessionTitleRunes) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionTitle(tt.question))
		})
	}
}
