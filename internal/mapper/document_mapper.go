package mapper

import (
	"encoding/json"
	"time"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/model"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.SourceDocument) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(d.Metadata) > 0 {
		// Ignore malformed metadata rather than failing the read.
		_ = json.Unmarshal(d.Metadata, &metadata)
	}

	return &entity.Document{
		Id:           d.Id,
		Cid:          d.Cid,
		Title:        d.Title,
		MimeType:     d.MimeType,
		SourceURL:    d.SourceURL,
		Content:      d.Content,
		Status:       d.Status,
		ErrorMessage: d.ErrorMessage,
		Metadata:     metadata,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.SourceDocument {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var metadata datatypes.JSON
	if d.Metadata != nil {
		if raw, err := json.Marshal(d.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.SourceDocument{
		Id:           d.Id,
		Cid:          d.Cid,
		Title:        d.Title,
		MimeType:     d.MimeType,
		SourceURL:    d.SourceURL,
		Content:      d.Content,
		Status:       d.Status,
		ErrorMessage: d.ErrorMessage,
		Metadata:     metadata,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.SourceDocument) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
