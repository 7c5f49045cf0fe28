package serverutils

import (
	"errors"

	"veritas-data-pipeline/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON responses.
// Application error kinds map onto HTTP statuses; anything unclassified is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		status := statusForKind(apperror.KindOf(err))

		var appErr *apperror.Error
		message := "internal server error"
		if errors.As(err, &appErr) {
			message = appErr.Message
		}

		return ctx.Status(status).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}

func statusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindDuplicateKey:
		return fiber.StatusConflict
	case apperror.KindTransient:
		return fiber.StatusServiceUnavailable
	case apperror.KindStorage, apperror.KindEmbedding:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
