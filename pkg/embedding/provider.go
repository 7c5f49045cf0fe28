package embedding

import (
	"context"
	"math"
)

// Provider defines the interface for generating text embeddings.
// Dimensionality is fixed for the lifetime of a configured instance;
// the bootstrap container verifies it against the deployment config.
type Provider interface {
	// EmbedText generates a single embedding vector for the given text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for all texts, preserving input order.
	// It is semantically equivalent to mapping EmbedText over the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the fixed vector dimensionality of this provider.
	Dimensions() int
	// Name identifies the provider for logging and metrics.
	Name() string
}

// ValidateVector reports whether vec has the expected length and contains
// no NaN or infinite elements.
func ValidateVector(vec []float32, dimensions int) bool {
	if len(vec) != dimensions {
		return false
	}
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// pgvector cosine distance expects normalized vectors for stable results.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
