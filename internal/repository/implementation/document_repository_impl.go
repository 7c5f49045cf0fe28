package implementation

import (
	"context"
	"errors"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/mapper"
	"veritas-data-pipeline/internal/model"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/repository/contract"
	"veritas-data-pipeline/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *entity.Document) error {
	m := r.mapper.ToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, "failed to create document "+doc.Id.String())
	}
	*doc = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, doc *entity.Document) error {
	m := r.mapper.ToModel(doc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return translateError(err, "failed to update document "+doc.Id.String())
	}
	*doc = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string, cid *string, errorMessage string) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}
	if cid != nil {
		updates["cid"] = *cid
	}

	result := r.db.WithContext(ctx).Model(&model.SourceDocument{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateError(result.Error, "failed to update status of document "+id.String())
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("document " + id.String() + " not found")
	}
	return nil
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.SourceDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err, "failed to find document")
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.SourceDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, translateError(err, "failed to list documents")
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Model(&model.SourceDocument{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count documents")
	}
	return count, nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.SourceDocument{}, id)
	if result.Error != nil {
		return false, translateError(result.Error, "failed to delete document "+id.String())
	}
	return result.RowsAffected > 0, nil
}
