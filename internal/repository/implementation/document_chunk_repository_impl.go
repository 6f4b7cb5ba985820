package implementation

import (
	"context"

	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/mapper"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/internal/repository/specification"
	"ai-docqa-be/pkg/rag/feedback"
	"ai-docqa-be/pkg/rag/retriever"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const chunkInsertBatch = 100

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

// ReplaceForDocument runs inside the caller's transaction when the repository
// was obtained from a unit of work that has begun one.
func (r *DocumentChunkRepositoryImpl) ReplaceForDocument(ctx context.Context, documentId uuid.UUID, chunks []*entity.Chunk) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error; err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		c.DocumentId = documentId
		models[i] = r.mapper.ChunkToModel(c)
	}
	if err := db.Omit("Document").CreateInBatches(models, chunkInsertBatch).Error; err != nil {
		return classifyPgError("insert chunks", err)
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.DocumentChunk
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type chunkTextRow struct {
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	Filename   string
}

// ChunkTexts hydrates index hits with chunk text and the owning filename.
// Chunks of soft-deleted documents are left out.
func (r *DocumentChunkRepositoryImpl) ChunkTexts(ctx context.Context, keys []feedback.ChunkKey) (map[string]retriever.ChunkText, error) {
	out := make(map[string]retriever.ChunkText, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	wanted := make(map[string]struct{}, len(keys))
	seen := make(map[uuid.UUID]struct{})
	var docIDs []uuid.UUID
	for _, k := range keys {
		wanted[k.String()] = struct{}{}
		if _, ok := seen[k.DocumentID]; !ok {
			seen[k.DocumentID] = struct{}{}
			docIDs = append(docIDs, k.DocumentID)
		}
	}

	var rows []chunkTextRow
	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.document_id, document_chunks.chunk_index, document_chunks.content, documents.filename").
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("document_chunks.document_id IN ?", docIDs).
		Where("documents.deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		key := feedback.Key(row.DocumentId, row.ChunkIndex)
		if _, ok := wanted[key]; !ok {
			continue
		}
		out[key] = retriever.ChunkText{Content: row.Content, Filename: row.Filename}
	}
	return out, nil
}
