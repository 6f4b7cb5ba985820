package serverutils

import (
	"errors"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusMapping pins a sentinel error to an HTTP status.
type StatusMapping struct {
	Err    error
	Status int
}

// ErrorHandlerMiddleware turns handler errors into the error envelope.
// Sentinels in mappings win; then fiber errors, validation errors and
// apperror kinds. Anything else is a 500 with a generic message.
func ErrorHandlerMiddleware(log logger.ILogger, mappings ...StatusMapping) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message, data := classify(err, mappings)
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
		}

		if data != nil {
			return ctx.Status(status).JSON(ErrorResponseWithData(status, message, data))
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func classify(err error, mappings []StatusMapping) (int, string, any) {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			return m.Status, m.Err.Error(), nil
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, "Invalid request", validationErr.Fields
	}

	switch apperror.KindOf(err) {
	case apperror.KindInput:
		return fiber.StatusBadRequest, err.Error(), nil
	case apperror.KindNotFound:
		return fiber.StatusNotFound, err.Error(), nil
	case apperror.KindConflict:
		return fiber.StatusConflict, err.Error(), nil
	case apperror.KindTransient:
		return fiber.StatusServiceUnavailable, "Upstream service unavailable, try again later", nil
	case apperror.KindTerminal:
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return fiber.StatusBadGateway, "Upstream service rejected the request", nil
		}
	}
	return fiber.StatusInternalServerError, "Internal server error", nil
}
