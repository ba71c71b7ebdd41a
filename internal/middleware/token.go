package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	jwtPkg "webby-assistant/pkg/jwt"
	"webby-assistant/pkg/log"
)

const unauthorizedMessage = "Unauthorized, session token invalid or expired"

// NewTokenMiddleware admits requests carrying a valid session ticket and
// stores its claims under "session" and its id under "session_id".
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	raw := jwtPkg.TokenFromRequest(ctx)
	if raw == "" {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
		}).Warn("Session token is missing")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": unauthorizedMessage,
		})
	}

	claims, err := jwtPkg.VerifySession(raw)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Warn("Session token verification failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": unauthorizedMessage,
		})
	}

	ctx.Locals("session", claims)
	ctx.Locals(log.SessionIDKey, claims.SessionID)

	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"session_id": claims.SessionID,
	}).Debug("Session token accepted")

	return ctx.Next()
}
