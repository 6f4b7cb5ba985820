package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/internal/repository/unitofwork"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/rag/feedback"
	"ai-docqa-be/pkg/rag/retriever"

	"github.com/google/uuid"
)

// store is an in-memory stand-in for the gorm repositories. Specifications
// are interpreted by type; ordering specs are ignored and rows come back in
// insertion order.
type store struct {
	mu          sync.Mutex
	documents   []*entity.Document
	chunks      []*entity.Chunk
	scores      []*entity.FeedbackScore
	sessions    []*entity.ChatSession
	messages    []*entity.ChatMessage
	evaluations []*entity.MessageEvaluation
}

func newStore() *store { return &store{} }

func (s *store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return &fakeUow{s: s} }

type fakeUow struct{ s *store }

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository { return &fakeDocuments{u.s} }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeChunks{u.s}
}
func (u *fakeUow) FeedbackScoreRepository() contract.FeedbackScoreRepository {
	return &fakeScores{u.s}
}
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return &fakeSessions{u.s} }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return &fakeMessages{u.s} }
func (u *fakeUow) MessageEvaluationRepository() contract.MessageEvaluationRepository {
	return &fakeEvaluations{u.s}
}

type fields map[string]interface{}

func matches(f fields, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if f["id"] != sp.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range sp.IDs {
				if f["id"] == id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.UserOwnedBy:
			if f["user_id"] != sp.UserID {
				return false
			}
		case specification.ByDocumentID:
			if f["document_id"] != sp.DocumentID {
				return false
			}
		case specification.ByChatSessionID:
			if f["chat_session_id"] != sp.ChatSessionID {
				return false
			}
		case specification.ByEmbeddingProvider:
			if f["embedding_provider"] != sp.Provider {
				return false
			}
		case specification.ByDocumentStatus:
			found := false
			for _, st := range sp.Statuses {
				if f["status"] == st {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.FilterBy:
			if f[sp.Field] != sp.Value {
				return false
			}
		}
	}
	return true
}

type fakeDocuments struct{ s *store }

func documentFields(d *entity.Document) fields {
	return fields{"id": d.Id, "user_id": d.UserId, "status": d.Status, "embedding_provider": d.EmbeddingProvider}
}

func (r *fakeDocuments) Create(ctx context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.Id == uuid.Nil {
		d.Id = uuid.New()
	}
	d.CreatedAt = time.Now()
	cp := *d
	r.s.documents = append(r.s.documents, &cp)
	return nil
}

func (r *fakeDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.documents[:0]
	for _, d := range r.s.documents {
		if d.Id != id {
			kept = append(kept, d)
		}
	}
	r.s.documents = kept
	return nil
}

func (r *fakeDocuments) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.DocumentStatus, to entity.DocumentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.documents {
		if d.Id != id {
			continue
		}
		for _, st := range from {
			if d.Status == st {
				d.Status = to
				d.LastError = ""
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeDocuments) MarkProcessed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, d := range r.s.documents {
		if d.Id == id {
			d.Status = entity.DocumentStatusProcessed
			d.ChunkCount = chunkCount
			d.ProcessedAt = &now
		}
	}
	return nil
}

func (r *fakeDocuments) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.documents {
		if d.Id == id {
			d.Status = entity.DocumentStatusFailed
			d.LastError = reason
		}
	}
	return nil
}

func (r *fakeDocuments) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeDocuments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.s.documents {
		if matches(documentFields(d), specs) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeChunks struct{ s *store }

func (r *fakeChunks) ReplaceForDocument(ctx context.Context, documentId uuid.UUID, chunks []*entity.Chunk) error {
	_ = r.DeleteByDocumentId(ctx, documentId)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range chunks {
		c.Id = uuid.New()
		c.DocumentId = documentId
		cp := *c
		r.s.chunks = append(r.s.chunks, &cp)
	}
	return nil
}

func (r *fakeChunks) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.chunks[:0]
	for _, c := range r.s.chunks {
		if c.DocumentId != documentId {
			kept = append(kept, c)
		}
	}
	r.s.chunks = kept
	return nil
}

func (r *fakeChunks) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Chunk
	for _, c := range r.s.chunks {
		if matches(fields{"id": c.Id, "document_id": c.DocumentId, "chunk_index": c.ChunkIndex}, specs) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (r *fakeChunks) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeChunks) ChunkTexts(ctx context.Context, keys []feedback.ChunkKey) (map[string]retriever.ChunkText, error) {
	return map[string]retriever.ChunkText{}, nil
}

type fakeScores struct{ s *store }

func (r *fakeScores) Increment(ctx context.Context, userId, documentId uuid.UUID, chunkIndex int, positive bool) (*entity.FeedbackScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var row *entity.FeedbackScore
	for _, sc := range r.s.scores {
		if sc.UserId == userId && sc.DocumentId == documentId && sc.ChunkIndex == chunkIndex {
			row = sc
		}
	}
	if row == nil {
		row = &entity.FeedbackScore{Id: uuid.New(), UserId: userId, DocumentId: documentId, ChunkIndex: chunkIndex}
		r.s.scores = append(r.s.scores, row)
	}
	if positive {
		row.PositiveCount++
	} else {
		row.NegativeCount++
	}
	row.TotalCount++
	row.Score = float64(row.PositiveCount-row.NegativeCount) / float64(row.TotalCount)
	cp := *row
	return &cp, nil
}

func (r *fakeScores) ScoresFor(ctx context.Context, userId uuid.UUID, keys []feedback.ChunkKey) (map[string]feedback.Score, error) {
	return map[string]feedback.Score{}, nil
}

func (r *fakeScores) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.scores[:0]
	for _, sc := range r.s.scores {
		if sc.DocumentId != documentId {
			kept = append(kept, sc)
		}
	}
	r.s.scores = kept
	return nil
}

type fakeSessions struct{ s *store }

func (r *fakeSessions) Create(ctx context.Context, session *entity.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	session.CreatedAt = time.Now()
	cp := *session
	r.s.sessions = append(r.s.sessions, &cp)
	return nil
}

func (r *fakeSessions) RecordMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.Id == id {
			session.MessageCount++
			session.LastMessageAt = &at
			session.UpdatedAt = &at
			return nil
		}
	}
	return errors.New("session not found")
}

func (r *fakeSessions) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.sessions[:0]
	for _, session := range r.s.sessions {
		if session.Id != id {
			kept = append(kept, session)
		}
	}
	r.s.sessions = kept
	return nil
}

func (r *fakeSessions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeSessions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ChatSession
	for _, session := range r.s.sessions {
		if matches(fields{"id": session.Id, "user_id": session.UserId}, specs) {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeMessages struct{ s *store }

func (r *fakeMessages) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.Id = uuid.New()
	m.CreatedAt = time.Now()
	cp := *m
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r *fakeMessages) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r *fakeMessages) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.s.messages {
		if matches(fields{"id": m.Id, "chat_session_id": m.ChatSessionId}, specs) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessages) FindRecent(ctx context.Context, sessionId uuid.UUID, n int) ([]*entity.ChatMessage, error) {
	all, _ := r.FindAll(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

type fakeEvaluations struct{ s *store }

func (r *fakeEvaluations) Create(ctx context.Context, e *entity.MessageEvaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.Id = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	r.s.evaluations = append(r.s.evaluations, &cp)
	return nil
}

func (r *fakeEvaluations) FindByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.MessageEvaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(messageIds))
	for _, id := range messageIds {
		wanted[id] = true
	}
	var out []*entity.MessageEvaluation
	for _, e := range r.s.evaluations {
		if wanted[e.ChatMessageId] {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingEvents) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType()
	}
	return out
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingQueue) PublishProcessDocument(ctx context.Context, documentId uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, documentId)
	return nil
}
