package assistantHandler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"webby-assistant/internal/api/assistant"
	contextPkg "webby-assistant/pkg/context"
	"webby-assistant/pkg/handlerUtil"
	jwtPkg "webby-assistant/pkg/jwt"
	"webby-assistant/pkg/log"
)

func (h *AssistantHandler) CreateSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req assistant.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, fiber.NewError(fiber.StatusBadRequest, "invalid request body"), ctx.Path(), "parse_request_body")
		}
	}

	req.UserName = strings.TrimSpace(req.UserName)
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.assistantService.CreateSession(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"session_id": res.SessionID,
		}).Info("Assistant session issued")
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

// requireOwnSession rejects tickets issued for a different session than the
// one in the path.
func (h *AssistantHandler) requireOwnSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	claims, err := jwtPkg.GetSessionClaims(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "session token required")
	}

	if ctx.Params("id") != claims.SessionID {
		return errHandler.Handle(ctx, requestID, assistant.ErrSessionForbidden, ctx.Path(), "authorize_session")
	}

	return ctx.Next()
}

func (h *AssistantHandler) GetChatHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	res, err := h.assistantService.GetChatHistory(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_chat_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *AssistantHandler) GetInteractions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	page, err := strconv.Atoi(ctx.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(ctx.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	res, err := h.assistantService.GetInteractions(c, ctx.Params("id"), page, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_interactions")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *AssistantHandler) GetSound(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	name := strings.TrimSuffix(ctx.Params("name"), ".wav")

	data, err := h.assistantService.Sound(contextPkg.FromFiberCtx(ctx), name)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_sound")
	}

	ctx.Set(fiber.HeaderContentType, "audio/wav")
	ctx.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return ctx.Status(fiber.StatusOK).Send(data)
}
