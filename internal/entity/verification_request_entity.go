package entity

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRequest is an analytics record written by the search surface.
// Writes are fire-and-forget; a failed insert never aborts the search.
type VerificationRequest struct {
	Id               uuid.UUID
	ClaimText        string
	Confidence       float64
	Status           string
	DocIds           []uuid.UUID
	Source           string
	ExtensionVersion string
	ProcessingTimeMs int
	CreatedAt        time.Time
}
