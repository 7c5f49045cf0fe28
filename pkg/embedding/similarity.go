package embedding

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity of two vectors.
// Returns 0 when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankedItem is a candidate for re-ranking. A nil Vector scores 0.0 rather
// than dropping the item.
type RankedItem struct {
	ID         string
	Vector     []float32
	Similarity float64
}

// Rerank scores every item against the query vector and sorts descending by
// similarity. The sort is stable, so items tied at the same score keep their
// input order.
func Rerank(query []float32, items []RankedItem) []RankedItem {
	ranked := make([]RankedItem, len(items))
	copy(ranked, items)

	for i := range ranked {
		if ranked[i].Vector == nil {
			ranked[i].Similarity = 0.0
			continue
		}
		ranked[i].Similarity = CosineSimilarity(query, ranked[i].Vector)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	return ranked
}
