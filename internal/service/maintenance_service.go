package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/pkg/progress"
	"veritas-data-pipeline/internal/repository/specification"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/pkg/embedding"
	"veritas-data-pipeline/pkg/ipfs"
)

const (
	reembedPageSize   = 50
	reembedAttempts   = 3
	reembedRetryDelay = 1 * time.Second
)

// IMaintenanceService hosts the offline jobs: re-embedding after a model
// change and cleanup of stale failed documents.
type IMaintenanceService interface {
	ReembedAll(ctx context.Context) (*ReembedReport, error)
	CleanupFailed(ctx context.Context, olderThan time.Duration) (int, error)
}

type ReembedReport struct {
	DocumentsScanned int
	ChunksReembedded int
	ChunksFailed     int
}

type maintenanceService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	ipfsClient        *ipfs.Client
	tracker           progress.Tracker
}

func NewMaintenanceService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	ipfsClient *ipfs.Client,
	tracker progress.Tracker,
) IMaintenanceService {
	return &maintenanceService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		ipfsClient:        ipfsClient,
		tracker:           tracker,
	}
}

// ReembedAll regenerates the embedding of every chunk of every completed
// document, page by page. Chunk content is the source of truth; a chunk that
// keeps failing after retries is skipped and counted, not fatal.
func (m *maintenanceService) ReembedAll(ctx context.Context) (*ReembedReport, error) {
	report := &ReembedReport{}
	uow := m.uowFactory.NewUnitOfWork(ctx)

	for page := 0; ; page++ {
		docs, err := uow.DocumentRepository().FindAll(ctx,
			specification.ByStatus{Status: entity.StatusCompleted},
			specification.OrderBy{Field: "created_at", Desc: false},
			specification.Pagination{Limit: reembedPageSize, Offset: page * reembedPageSize},
		)
		if err != nil {
			return report, err
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			report.DocumentsScanned++

			chunks, err := uow.DocumentChunkRepository().FindByDocumentId(ctx, doc.Id)
			if err != nil {
				log.Printf("[WARN] Reembed: failed to load chunks of %s: %v", doc.Id, err)
				continue
			}

			for _, chunk := range chunks {
				vec, err := m.embedWithRetry(ctx, chunk.Content)
				if err != nil {
					log.Printf("[WARN] Reembed: chunk %s failed after %d attempts: %v", chunk.Id, reembedAttempts, err)
					report.ChunksFailed++
					continue
				}
				if err := uow.DocumentChunkRepository().UpdateEmbedding(ctx, chunk.Id, vec); err != nil {
					log.Printf("[WARN] Reembed: failed to store embedding of chunk %s: %v", chunk.Id, err)
					report.ChunksFailed++
					continue
				}
				report.ChunksReembedded++
			}
		}
	}

	log.Printf("[INFO] Reembed finished: %d documents, %d chunks updated, %d failed",
		report.DocumentsScanned, report.ChunksReembedded, report.ChunksFailed)
	return report, nil
}

func (m *maintenanceService) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= reembedAttempts; attempt++ {
		if attempt > 1 {
			delay := reembedRetryDelay * (1 << (attempt - 2))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vec, err := m.embeddingProvider.EmbedText(ctx, text)
		if err != nil {
			lastErr = err
			continue
		}
		if !embedding.ValidateVector(vec, m.embeddingProvider.Dimensions()) {
			lastErr = fmt.Errorf("provider returned invalid vector")
			continue
		}
		return vec, nil
	}
	return nil, lastErr
}

// CleanupFailed deletes FAILED documents older than the cutoff. Stored content
// is unpinned best-effort; progress entries are cleared.
func (m *maintenanceService) CleanupFailed(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	uow := m.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: entity.StatusFailed},
		specification.OlderThan{Cutoff: cutoff},
	)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range docs {
		deleted, err := uow.DocumentRepository().Delete(ctx, doc.Id)
		if err != nil {
			log.Printf("[WARN] Cleanup: failed to delete document %s: %v", doc.Id, err)
			continue
		}
		if !deleted {
			continue
		}

		if doc.Cid != nil {
			if err := m.ipfsClient.Unpin(ctx, *doc.Cid); err != nil {
				log.Printf("[WARN] Cleanup: failed to unpin CID %s: %v", *doc.Cid, err)
			}
		}
		m.tracker.Clear(ctx, doc.Id.String())
		removed++
	}

	log.Printf("[INFO] Cleanup finished: removed %d failed documents older than %s", removed, olderThan)
	return removed, nil
}
