package implementation

import (
	"context"
	"errors"

	"veritas-data-pipeline/internal/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError maps driver-level failures onto the application taxonomy so
// callers can distinguish not-found from duplicate from transient.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(message)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.DuplicateKey(message)
		case pgForeignKeyViolation:
			return apperror.Wrap(apperror.KindValidation, message, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Transient(message, err)
	}

	return apperror.Transient(message, err)
}
