package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/internal/repository/unitofwork"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/rag/chunker"
	"ai-docqa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentProcessing = errors.New("document is already being processed")
	ErrDocumentProcessed  = errors.New("document has already been processed")
)

const (
	documentModule        = "DOCUMENT"
	defaultEmbeddingBatch = 32
	failureWriteTimeout   = 10 * time.Second
)

// ProcessResult reports one ingestion run. Empty marks a document whose text
// produced no chunks.
type ProcessResult struct {
	Success    bool
	DocumentID uuid.UUID
	Empty      bool
	Chunks     []*entity.Chunk
}

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.DocumentResponse, error)
	Chunks(ctx context.Context, userId, id uuid.UUID) ([]dto.ChunkResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
	// Enqueue checks ownership and hands processing to the background consumer.
	Enqueue(ctx context.Context, userId, id uuid.UUID) error
	// ProcessOwned checks ownership and processes synchronously.
	ProcessOwned(ctx context.Context, userId, id uuid.UUID) (*ProcessResult, error)
	ProcessDocument(ctx context.Context, documentId uuid.UUID) (*ProcessResult, error)
}

type DocumentServiceConfig struct {
	EmbeddingBatchSize int
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *embedding.Registry
	index      vectorindex.Index
	chunker    *chunker.Chunker
	publisher  IPublisherService
	events     events.Publisher
	cfg        DocumentServiceConfig
	logger     logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	registry *embedding.Registry,
	index vectorindex.Index,
	chunk *chunker.Chunker,
	publisher IPublisherService,
	eventPublisher events.Publisher,
	cfg DocumentServiceConfig,
	log logger.ILogger,
) IDocumentService {
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = defaultEmbeddingBatch
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &documentService{
		uowFactory: uowFactory,
		registry:   registry,
		index:      index,
		chunker:    chunk,
		publisher:  publisher,
		events:     eventPublisher,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	// resolving the tag here fixes the provider for the document's lifetime
	provider, err := s.registry.Get(strings.TrimSpace(req.Provider))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInput, "create document", err)
	}

	doc := &entity.Document{
		UserId:            userId,
		Filename:          req.Filename,
		Content:           req.Content,
		Status:            entity.DocumentStatusUploaded,
		EmbeddingProvider: provider.Name(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info(documentModule, "Document created", map[string]interface{}{
		"document_id": doc.Id.String(),
		"user_id":     userId.String(),
		"provider":    doc.EmbeddingProvider,
		"size":        len(doc.Content),
	})
	return toDocumentResponse(doc), nil
}

func (s *documentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, len(docs))
	for i, d := range docs {
		res[i] = toDocumentResponse(d)
	}
	return res, nil
}

func (s *documentService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) Chunks(ctx context.Context, userId, id uuid.UUID) ([]dto.ChunkResponse, error) {
	if _, err := s.findOwned(ctx, userId, id); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: id},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil {
		return nil, err
	}
	return toChunkResponses(chunks), nil
}

func (s *documentService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return err
	}
	if doc.Status == entity.DocumentStatusProcessing {
		return ErrDocumentProcessing
	}

	err = unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
			return err
		}
		if err := uow.FeedbackScoreRepository().DeleteByDocumentId(ctx, id); err != nil {
			return err
		}
		return uow.DocumentRepository().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.index.DeleteDocument(ctx, id); err != nil {
		// rows are gone; orphaned vectors are unreachable because search is scoped by document
		s.logger.Warn(documentModule, "Failed to delete vectors", map[string]interface{}{
			"document_id": id.String(),
			"error":       err.Error(),
		})
	}
	return nil
}

func (s *documentService) Enqueue(ctx context.Context, userId, id uuid.UUID) error {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return err
	}
	if err := precondition(doc); err != nil {
		return err
	}
	return s.publisher.PublishProcessDocument(ctx, id)
}

func (s *documentService) ProcessOwned(ctx context.Context, userId, id uuid.UUID) (*ProcessResult, error) {
	if _, err := s.findOwned(ctx, userId, id); err != nil {
		return nil, err
	}
	return s.ProcessDocument(ctx, id)
}

// ProcessDocument chunks, embeds and indexes one document. The status moves
// uploaded|failed -> processing with a compare-and-set that is committed
// before any slow work, so a second caller gets ErrDocumentProcessing. Any
// failure after that point leaves the document failed, never processing.
func (s *documentService) ProcessDocument(ctx context.Context, documentId uuid.UUID) (*ProcessResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentRepository()

	doc, err := repo.FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if err := precondition(doc); err != nil {
		return nil, err
	}

	won, err := repo.TransitionStatus(ctx, documentId,
		[]entity.DocumentStatus{entity.DocumentStatusUploaded, entity.DocumentStatusFailed},
		entity.DocumentStatusProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim document: %w", err)
	}
	if !won {
		// lost the race; report what the winner left behind
		current, err := repo.FindOne(ctx, specification.ByID{ID: documentId})
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		if current == nil {
			return nil, ErrDocumentNotFound
		}
		if err := precondition(current); err != nil {
			return nil, err
		}
		return nil, ErrDocumentProcessing
	}

	s.logger.Info(documentModule, "Processing document", map[string]interface{}{
		"document_id": documentId.String(),
		"provider":    doc.EmbeddingProvider,
	})

	chunks, err := s.ingest(ctx, doc)
	if err != nil {
		s.fail(ctx, doc, err)
		return nil, err
	}

	if err := repo.MarkProcessed(ctx, documentId, len(chunks)); err != nil {
		s.fail(ctx, doc, err)
		return nil, fmt.Errorf("failed to mark document processed: %w", err)
	}

	s.logger.Info(documentModule, "Document processed", map[string]interface{}{
		"document_id": documentId.String(),
		"chunks":      len(chunks),
	})
	s.publish(ctx, events.DocumentProcessed(doc.UserId, documentId, doc.EmbeddingProvider, len(chunks)))

	return &ProcessResult{
		Success:    true,
		DocumentID: documentId,
		Empty:      len(chunks) == 0,
		Chunks:     chunks,
	}, nil
}

func (s *documentService) ingest(ctx context.Context, doc *entity.Document) ([]*entity.Chunk, error) {
	provider, err := s.registry.Get(doc.EmbeddingProvider)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTerminal, "process document", err)
	}

	pieces := s.chunker.Split(doc.Content)
	if len(pieces) == 0 {
		s.logger.Warn(documentModule, "Document produced no chunks", map[string]interface{}{
			"document_id": doc.Id.String(),
		})
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}
	vectors, err := s.embedAll(ctx, provider, texts)
	if err != nil {
		return nil, err
	}

	chunks := make([]*entity.Chunk, len(pieces))
	entries := make([]vectorindex.Entry, len(pieces))
	for i, p := range pieces {
		chunks[i] = &entity.Chunk{
			DocumentId:        doc.Id,
			ChunkIndex:        p.Index,
			Content:           p.Text,
			StartOffset:       p.Start,
			EndOffset:         p.End,
			EmbeddingProvider: provider.Name(),
			Dimensions:        provider.Dimensions(),
		}
		entries[i] = vectorindex.Entry{
			ChunkIndex: p.Index,
			Vector:     vectors[i],
			Metadata:   map[string]string{"filename": doc.Filename},
		}
	}

	err = unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		return uow.DocumentChunkRepository().ReplaceForDocument(ctx, doc.Id, chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	if err := s.index.Upsert(ctx, doc.Id, provider.Name(), entries); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	return chunks, nil
}

func (s *documentService) embedAll(ctx context.Context, provider embedding.Provider, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.cfg.EmbeddingBatchSize {
		end := start + s.cfg.EmbeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := provider.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// fail records the failure on a context that survives the caller's
// cancellation so the document never stays in processing.
func (s *documentService) fail(ctx context.Context, doc *entity.Document, cause error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(writeCtx)
	if err := uow.DocumentRepository().MarkFailed(writeCtx, doc.Id, truncateReason(cause.Error())); err != nil {
		s.logger.Error(documentModule, "Failed to mark document failed", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	s.logger.Error(documentModule, "Document processing failed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"kind":        string(apperror.KindOf(cause)),
		"error":       cause.Error(),
	})
	s.publish(writeCtx, events.DocumentFailed(doc.UserId, doc.Id, cause.Error()))
}

func (s *documentService) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn(documentModule, "Failed to publish event", map[string]interface{}{
			"event": ev.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *documentService) findOwned(ctx context.Context, userId, id uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func precondition(doc *entity.Document) error {
	if doc.Processable() {
		return nil
	}
	switch doc.Status {
	case entity.DocumentStatusProcessing:
		return ErrDocumentProcessing
	case entity.DocumentStatusProcessed:
		return ErrDocumentProcessed
	default:
		return nil
	}
}

func truncateReason(s string) string {
	const max = 1000
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:                d.Id,
		Filename:          d.Filename,
		Status:            string(d.Status),
		EmbeddingProvider: d.EmbeddingProvider,
		ChunkCount:        d.ChunkCount,
		LastError:         d.LastError,
		ProcessedAt:       d.ProcessedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func toChunkResponses(chunks []*entity.Chunk) []dto.ChunkResponse {
	res := make([]dto.ChunkResponse, len(chunks))
	for i, c := range chunks {
		res[i] = dto.ChunkResponse{
			ChunkIndex:  c.ChunkIndex,
			Content:     c.Content,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
			Provider:    c.EmbeddingProvider,
			Dimensions:  c.Dimensions,
		}
	}
	return res
}

// ToProcessResponse converts a ProcessResult for the HTTP layer.
func ToProcessResponse(r *ProcessResult) *dto.ProcessDocumentResponse {
	return &dto.ProcessDocumentResponse{
		Success:    r.Success,
		DocumentId: r.DocumentID,
		Empty:      r.Empty,
		Chunks:     toChunkResponses(r.Chunks),
	}
}
