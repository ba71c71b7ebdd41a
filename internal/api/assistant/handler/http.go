package assistantHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	assistantService "webby-assistant/internal/api/assistant/service"
	"webby-assistant/internal/middleware"
)

type AssistantHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	assistantService assistantService.IAssistantService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	as assistantService.IAssistantService,
) *AssistantHandler {
	return &AssistantHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		assistantService: as,
	}
}

func (h *AssistantHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	assistant := srv.Group("/assistant")

	assistant.Post("/sessions", h.middleware.NewRateLimiter, h.CreateSession)
	assistant.Get("/assets/:name", h.GetSound)

	// The ticket is checked before the upgrade so a rejected client gets a
	// plain 401 instead of a socket that closes immediately.
	assistant.Use("/ws", h.middleware.NewTokenMiddleware, wsMiddleware)
	assistant.Get("/ws", websocket.New(h.handleWebSocket))

	session := assistant.Group("/sessions/:id", h.middleware.NewTokenMiddleware, h.requireOwnSession)
	session.Get("/messages", h.GetChatHistory)
	session.Get("/interactions", h.GetInteractions)
}
