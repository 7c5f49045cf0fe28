package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationRequest struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClaimText        string         `gorm:"type:text;not null"`
	Confidence       float64        `gorm:"type:numeric(3,2)"`
	Status           string         `gorm:"not null"`
	DocIds           datatypes.JSON `gorm:"type:jsonb"`
	Source           string
	ExtensionVersion string
	ProcessingTimeMs int
	CreatedAt        time.Time `gorm:"autoCreateTime;index:idx_verification_requests_created_at"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}
