package implementation

import (
	"context"
	"encoding/json"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/model"
	"veritas-data-pipeline/internal/repository/contract"

	"gorm.io/gorm"
)

type VerificationRequestRepositoryImpl struct {
	db *gorm.DB
}

func NewVerificationRequestRepository(db *gorm.DB) contract.VerificationRequestRepository {
	return &VerificationRequestRepositoryImpl{db: db}
}

func (r *VerificationRequestRepositoryImpl) Create(ctx context.Context, req *entity.VerificationRequest) error {
	docIds, err := json.Marshal(req.DocIds)
	if err != nil {
		return translateError(err, "failed to marshal verification doc ids")
	}

	m := &model.VerificationRequest{
		Id:               req.Id,
		ClaimText:        req.ClaimText,
		Confidence:       req.Confidence,
		Status:           req.Status,
		DocIds:           docIds,
		Source:           req.Source,
		ExtensionVersion: req.ExtensionVersion,
		ProcessingTimeMs: req.ProcessingTimeMs,
		CreatedAt:        req.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, "failed to store verification request")
	}
	return nil
}
