package controller

import (
	"ai-docqa-be/internal/pkg/serverutils"
	"ai-docqa-be/internal/service"
	"ai-docqa-be/pkg/embedding"

	"github.com/gofiber/fiber/v2"
)

// ServiceErrorMappings maps service sentinels to statuses for the error handler.
func ServiceErrorMappings() []serverutils.StatusMapping {
	return []serverutils.StatusMapping{
		{Err: service.ErrDocumentNotFound, Status: fiber.StatusNotFound},
		{Err: service.ErrSessionNotFound, Status: fiber.StatusNotFound},
		{Err: service.ErrDocumentProcessing, Status: fiber.StatusConflict},
		{Err: service.ErrDocumentProcessed, Status: fiber.StatusConflict},
		{Err: service.ErrInvalidRole, Status: fiber.StatusBadRequest},
		{Err: embedding.ErrUnknownProvider, Status: fiber.StatusBadRequest},
	}
}
