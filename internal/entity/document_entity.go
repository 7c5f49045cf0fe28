package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document lifecycle statuses. COMPLETED and FAILED are terminal.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

type Document struct {
	Id           uuid.UUID
	Cid          *string // set only on successful ingestion
	Title        string
	MimeType     string
	SourceURL    string
	Content      string
	Status       string
	ErrorMessage string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// IsTerminal reports whether the document has reached an absorbing state.
func (d *Document) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}
