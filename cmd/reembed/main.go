package main

import (
	"context"
	"log"

	"veritas-data-pipeline/internal/bootstrap"
	"veritas-data-pipeline/internal/config"
	"veritas-data-pipeline/pkg/database"
)

// Regenerates every stored chunk embedding with the currently configured
// provider. Run after switching embedding models.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}

	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap application: %v", err)
	}

	report, err := container.MaintenanceService.ReembedAll(context.Background())
	if err != nil {
		log.Fatalf("Reembed failed: %v", err)
	}

	log.Printf("✅ Reembed complete: %d documents scanned, %d chunks updated, %d failed",
		report.DocumentsScanned, report.ChunksReembedded, report.ChunksFailed)
}
