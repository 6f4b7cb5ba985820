package implementation

import (
	"context"
	"fmt"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ChunkVectorIndex is the pgvector backend of vectorindex.Index over the
// chunk_embeddings table.
type ChunkVectorIndex struct {
	db *gorm.DB
}

func NewChunkVectorIndex(db *gorm.DB) *ChunkVectorIndex {
	return &ChunkVectorIndex{db: db}
}

var _ vectorindex.Index = (*ChunkVectorIndex)(nil)

func (i *ChunkVectorIndex) Upsert(ctx context.Context, documentID uuid.UUID, provider string, entries []vectorindex.Entry) error {
	if err := vectorindex.ValidateEntries(entries); err != nil {
		return err
	}

	rows := make([]*model.ChunkEmbedding, len(entries))
	for n, e := range entries {
		rows[n] = &model.ChunkEmbedding{
			DocumentId: documentID,
			Provider:   provider,
			ChunkIndex: e.ChunkIndex,
			Embedding:  pgvector.NewVector(e.Vector),
		}
	}

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ? AND provider = ?", documentID, provider).
			Delete(&model.ChunkEmbedding{}).Error; err != nil {
			return fmt.Errorf("failed to clear vectors: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, chunkInsertBatch).Error; err != nil {
			return fmt.Errorf("failed to insert vectors: %w", err)
		}
		return nil
	})
	return classifyPgError("upsert vectors", err)
}

type scoredChunkRow struct {
	DocumentId uuid.UUID
	ChunkIndex int
	Similarity float64
}

// Search ranks by cosine similarity, 1 - (embedding <=> query).
func (i *ChunkVectorIndex) Search(ctx context.Context, vector []float32, q vectorindex.Query) ([]vectorindex.Hit, error) {
	if len(q.DocumentIDs) == 0 || q.TopK <= 0 || len(vector) == 0 {
		return []vectorindex.Hit{}, nil
	}

	var rows []scoredChunkRow
	err := i.db.WithContext(ctx).
		Model(&model.ChunkEmbedding{}).
		Select("document_id, chunk_index, 1 - (embedding <=> ?) AS similarity", pgvector.NewVector(vector)).
		Where("provider = ?", q.Provider).
		Where("document_id IN ?", q.DocumentIDs).
		Order("similarity DESC, chunk_index ASC, document_id ASC").
		Limit(q.TopK).
		Scan(&rows).Error
	if err != nil {
		return nil, classifyPgError("search vectors", err)
	}

	hits := make([]vectorindex.Hit, len(rows))
	for n, row := range rows {
		hits[n] = vectorindex.Hit{
			DocumentID: row.DocumentId,
			ChunkIndex: row.ChunkIndex,
			Similarity: row.Similarity,
		}
	}
	vectorindex.SortHits(hits)
	return hits, nil
}

func (i *ChunkVectorIndex) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	return i.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.ChunkEmbedding{}).Error
}
