package controller

import (
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/serverutils"
	"ai-docqa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFeedbackController interface {
	RegisterRoutes(r fiber.Router)
	Record(ctx *fiber.Ctx) error
}

type feedbackController struct {
	feedbackService service.IFeedbackService
	auth            fiber.Handler
}

func NewFeedbackController(feedbackService service.IFeedbackService, auth fiber.Handler) IFeedbackController {
	return &feedbackController{
		feedbackService: feedbackService,
		auth:            auth,
	}
}

func (c *feedbackController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/feedback/v1")
	h.Use(c.auth)
	h.Post("", c.Record)
}

func (c *feedbackController) Record(ctx *fiber.Ctx) error {
	var req dto.RecordFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.feedbackService.Record(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Feedback recorded", res))
}
