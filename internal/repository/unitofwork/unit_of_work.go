package unitofwork

import (
	"context"

	"veritas-data-pipeline/internal/repository/contract"
)

// UnitOfWork scopes repository work to a single transaction. Accessors return
// repositories bound to the active transaction, or to the bare connection when
// no transaction was begun.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	VerificationRequestRepository() contract.VerificationRequestRepository
}
