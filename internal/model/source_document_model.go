package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SourceDocument struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Cid          *string        `gorm:"uniqueIndex;index:idx_source_documents_cid"`
	Title        string         `gorm:"not null"`
	MimeType     string         `gorm:"not null"`
	SourceURL    string         `gorm:"column:source_url"`
	Content      string         `gorm:"type:text"`
	Status       string         `gorm:"not null;index"`
	ErrorMessage string         `gorm:"type:text"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`

	Chunks []DocumentChunk `gorm:"foreignKey:DocumentId;constraint:OnDelete:CASCADE"`
}

func (SourceDocument) TableName() string {
	return "source_documents"
}
