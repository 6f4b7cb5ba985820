package main

import (
	"log"

	"ai-docqa-be/internal/config"
	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Extensions and AutoMigrate...")
	if err := model.Migrate(db); err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Println("Step 2: Views and indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_provider_document
		 ON chunk_embeddings (provider, document_id);`,

		`CREATE OR REPLACE VIEW searchable_document_chunks AS
		 SELECT d.id AS document_id, d.user_id, d.filename, d.embedding_provider,
		        c.chunk_index, c.content, e.embedding
		 FROM documents d
		 JOIN document_chunks c ON c.document_id = d.id
		 JOIN chunk_embeddings e ON e.document_id = d.id
		      AND e.chunk_index = c.chunk_index
		      AND e.provider = d.embedding_provider
		 WHERE d.deleted_at IS NULL AND d.status = 'processed';`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: database migration completed.")
}
