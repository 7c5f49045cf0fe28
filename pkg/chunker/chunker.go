package chunker

import (
	"strings"

	"veritas-data-pipeline/internal/pkg/apperror"
)

const (
	DefaultMaxChunkSize = 500
	DefaultOverlap      = 20
)

// Chunk splits text into overlapping word-level windows.
// Chunk i starts at token offset i*(maxChunkSize-overlap) and spans up to
// maxChunkSize tokens. Every start offset below the token count emits a
// window, so an input that exactly fills a window still carries a short
// trailing chunk of the overlapped tail. Blank chunks are dropped; empty
// input yields nil.
func Chunk(text string, maxChunkSize, overlap int) ([]string, error) {
	if maxChunkSize <= 0 {
		return nil, apperror.Validationf("maxChunkSize must be positive, got %d", maxChunkSize)
	}
	if overlap < 0 {
		return nil, apperror.Validationf("overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxChunkSize {
		return nil, apperror.Configuration("chunker overlap must be smaller than maxChunkSize")
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := maxChunkSize - overlap
	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + maxChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.Join(tokens[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// ChunkDefault applies the standard 500-token window with 20-token overlap.
func ChunkDefault(text string) ([]string, error) {
	return Chunk(text, DefaultMaxChunkSize, DefaultOverlap)
}
