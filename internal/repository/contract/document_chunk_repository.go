package contract

import (
	"context"

	"veritas-data-pipeline/internal/entity"

	"github.com/google/uuid"
)

// ScoredChunk wraps a chunk with its similarity score and parent document
// attributes needed by the search surface.
type ScoredChunk struct {
	Chunk      *entity.DocumentChunk
	Title      string
	Cid        string
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	// FindByDocumentId returns chunks ordered by chunk_index.
	FindByDocumentId(ctx context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error)
	UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, embedding []float32) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// SearchSimilarWithScore returns chunks whose cosine similarity to the
	// query vector is strictly greater than threshold, descending, at most
	// limit rows. No match is an empty slice, not an error.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredChunk, error)
}
