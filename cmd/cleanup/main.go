package main

import (
	"context"
	"flag"
	"log"
	"time"

	"veritas-data-pipeline/internal/bootstrap"
	"veritas-data-pipeline/internal/config"
	"veritas-data-pipeline/pkg/database"
)

// Deletes FAILED documents older than the cutoff and unpins their content.
func main() {
	olderThan := flag.Duration("older-than", 7*24*time.Hour, "delete failed documents older than this")
	flag.Parse()

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

	removed, err := container.MaintenanceService.CleanupFailed(context.Background(), *olderThan)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	log.Printf("✅ Cleanup complete: removed %d failed documents", removed)
}
