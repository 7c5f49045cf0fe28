package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int // 0-based, contiguous per document
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
