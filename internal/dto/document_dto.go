package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

type IngestDocumentResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
}

type BatchUploadResponse struct {
	BatchId       uuid.UUID `json:"batch_id"`
	TotalFiles    int       `json:"total_files"`
	AcceptedFiles int       `json:"accepted_files"`
	RejectedFiles int       `json:"rejected_files"`
	Message       string    `json:"message"`
}

type DocumentStatusResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"` // 0-100
	Message    string    `json:"message"`
	Cid        *string   `json:"cid,omitempty"`
}

type DocumentSummary struct {
	Id        uuid.UUID `json:"id"`
	Cid       *string   `json:"cid,omitempty"`
	Title     string    `json:"title"`
	MimeType  string    `json:"mime_type"`
	SourceURL string    `json:"source_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ListDocumentsResponse struct {
	Documents  []DocumentSummary `json:"documents"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// ProcessDocumentMessage is the work-queue payload for a single ingestion.
// The raw upload is spooled to disk so the queue carries only a reference.
type ProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	FilePath   string    `json:"file_path"`
}
