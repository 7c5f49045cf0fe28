package contract

import (
	"context"

	"veritas-data-pipeline/internal/entity"
)

type VerificationRequestRepository interface {
	Create(ctx context.Context, req *entity.VerificationRequest) error
}
