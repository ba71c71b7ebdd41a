package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey = "request_id"
	SessionIDKey = "session_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func GetRequestID(ctx context.Context) string {
	return valueOrUnknown(ctx, RequestIDKey)
}

func GetSessionID(ctx context.Context) string {
	return valueOrUnknown(ctx, SessionIDKey)
}

func valueOrUnknown(ctx context.Context, key string) string {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "unknown"
	}
	return v
}

// FromFiberCtx detaches a request from fiber's pooled context, keeping its
// request id and, when the session token was checked, its session id.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := context.Background()

	requestID, ok := c.Locals("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Get("X-Request-ID")

		if requestID == "" {
			requestID = "unknown"
		}
	}
	ctx = WithRequestID(ctx, requestID)

	if sessionID, ok := c.Locals(SessionIDKey).(string); ok && sessionID != "" {
		ctx = WithSessionID(ctx, sessionID)
	}

	return ctx
}
