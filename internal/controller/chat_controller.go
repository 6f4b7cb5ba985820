package controller

import (
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/serverutils"
	"ai-docqa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	auth        fiber.Handler
	askLimit    fiber.Handler
}

// NewChatController wires the chat routes. askLimit may be nil to disable
// rate limiting of /ask.
func NewChatController(chatService service.IChatService, auth, askLimit fiber.Handler) IChatController {
	return &chatController{
		chatService: chatService,
		auth:        auth,
		askLimit:    askLimit,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Post("session", c.CreateSession)
	h.Get("sessions", c.GetAllSessions)
	if c.askLimit != nil {
		h.Post("ask", c.askLimit, c.Ask)
	} else {
		h.Post("ask", c.Ask)
	}
	h.Get(":sessionId/messages", c.GetMessages)
	h.Delete(":sessionId", c.DeleteSession)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetAllSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetAllSessions(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.chatService.GetMessages(ctx.UserContext(), serverutils.UserID(ctx), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat messages", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId, err := paramID(ctx, "sessionId")
	if err != nil {
		return err
	}

	if err := c.chatService.DeleteSession(ctx.UserContext(), serverutils.UserID(ctx), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Ask(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}
