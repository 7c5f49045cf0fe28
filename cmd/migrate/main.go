package main

import (
	"log"

	"veritas-data-pipeline/internal/config"
	"veritas-data-pipeline/internal/model"
	"veritas-data-pipeline/pkg/database"
)

// Applies the schema: pgvector extension, the three pipeline tables and the
// ANN index on the embedding column.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatalf("Failed to create vector extension: %v", err)
	}

	if err := db.AutoMigrate(
		&model.SourceDocument{},
		&model.DocumentChunk{},
		&model.VerificationRequest{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// ivfflat needs rows to build useful lists; IF NOT EXISTS keeps reruns cheap.
	if err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)",
	).Error; err != nil {
		log.Fatalf("Failed to create embedding index: %v", err)
	}

	log.Println("✅ Migration complete")
}
