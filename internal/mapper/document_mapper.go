package mapper

import (
	"ai-docqa-be/internal/entity"
	"ai-docqa-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}
	return &entity.Document{
		Id:                d.Id,
		UserId:            d.UserId,
		Filename:          d.Filename,
		Content:           d.Content,
		Status:            entity.DocumentStatus(d.Status),
		EmbeddingProvider: d.EmbeddingProvider,
		ChunkCount:        d.ChunkCount,
		LastError:         d.LastError,
		ProcessedAt:       d.ProcessedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         timePtr(d.UpdatedAt),
		DeletedAt:         deletedAtPtr(d.DeletedAt),
		IsDeleted:         d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		Id:                d.Id,
		UserId:            d.UserId,
		Filename:          d.Filename,
		Content:           d.Content,
		Status:            string(d.Status),
		EmbeddingProvider: d.EmbeddingProvider,
		ChunkCount:        d.ChunkCount,
		LastError:         d.LastError,
		ProcessedAt:       d.ProcessedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         timeValue(d.UpdatedAt),
		DeletedAt:         toDeletedAt(d.DeletedAt, d.IsDeleted),
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.Chunk {
	if c == nil {
		return nil
	}
	return &entity.Chunk{
		Id:                c.Id,
		DocumentId:        c.DocumentId,
		ChunkIndex:        c.ChunkIndex,
		Content:           c.Content,
		StartOffset:       c.StartOffset,
		EndOffset:         c.EndOffset,
		EmbeddingProvider: c.EmbeddingProvider,
		Dimensions:        c.Dimensions,
		CreatedAt:         c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.Chunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:                c.Id,
		DocumentId:        c.DocumentId,
		ChunkIndex:        c.ChunkIndex,
		Content:           c.Content,
		StartOffset:       c.StartOffset,
		EndOffset:         c.EndOffset,
		EmbeddingProvider: c.EmbeddingProvider,
		Dimensions:        c.Dimensions,
		CreatedAt:         c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunksToEntities(chunks []*model.DocumentChunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ChunkToEntity(c)
	}
	return entities
}
