package model

import (
	"fmt"

	"gorm.io/gorm"
)

var extensions = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

// All lists every table in dependency order.
func All() []interface{} {
	return []interface{}{
		&Document{},
		&DocumentChunk{},
		&ChunkEmbedding{},
		&FeedbackScore{},
		&ChatSession{},
		&ChatMessage{},
		&MessageEvaluation{},
	}
}

// Migrate installs the extensions the schema needs and auto-migrates every model.
func Migrate(db *gorm.DB) error {
	for _, sql := range extensions {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to set up extension: %w", err)
		}
	}
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
