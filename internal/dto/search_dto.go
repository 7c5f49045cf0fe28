package dto

import "github.com/google/uuid"

type SearchRequest struct {
	Query               string    `json:"query"`
	QueryVector         []float32 `json:"query_vector"`
	Limit               int       `json:"limit" validate:"omitempty,min=1,max=50"`
	SimilarityThreshold float64   `json:"similarity_threshold" validate:"omitempty,gt=0,lt=1"`
}

type SearchMatch struct {
	DocumentId uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Title      string    `json:"title"`
	Cid        string    `json:"cid"`
	Similarity float64   `json:"similarity"`
}

type SearchResponse struct {
	Matches []SearchMatch `json:"matches"`
	Total   int           `json:"total"`
}
