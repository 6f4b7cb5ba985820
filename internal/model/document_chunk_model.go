package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_chunk"`
	ChunkIndex        int       `gorm:"not null;uniqueIndex:idx_document_chunk"`
	Content           string    `gorm:"type:text;not null"`
	StartOffset       int       `gorm:"not null"`
	EndOffset         int       `gorm:"not null"`
	EmbeddingProvider string    `gorm:"type:varchar(50);not null"`
	Dimensions        int       `gorm:"not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`

	Document Document `gorm:"foreignKey:DocumentId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// ChunkEmbedding is the pgvector row behind the vector index. The column is
// dimensionless so each provider keeps its own width.
type ChunkEmbedding struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chunk_embedding_key"`
	Provider   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_chunk_embedding_key"`
	ChunkIndex int             `gorm:"not null;uniqueIndex:idx_chunk_embedding_key"`
	Embedding  pgvector.Vector `gorm:"type:vector;not null"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}
