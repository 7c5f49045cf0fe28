package contract

import (
	"context"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	// Create inserts a new document row. An existing id or cid surfaces as a
	// duplicate-key error.
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	// UpdateStatus updates exactly one row; unknown ids surface as not-found.
	// cid is recorded only when non-nil (success path).
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, cid *string, errorMessage string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// Delete returns false when the document did not exist; chunks cascade.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
