package assistantHandler

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"webby-assistant/internal/api/assistant"
	assistantService "webby-assistant/internal/api/assistant/service"
	"webby-assistant/internal/middleware"
	contextPkg "webby-assistant/pkg/context"
	jwtPkg "webby-assistant/pkg/jwt"
)

const (
	maxReadTimeout = 60 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// handleWebSocket carries one live conversation: client events in, directives
// out. Only the writer goroutine writes data frames.
func (h *AssistantHandler) handleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals("session").(*jwtPkg.SessionClaims)
	if !ok || claims == nil {
		closeWith(c, websocket.ClosePolicyViolation, "session token required")
		return
	}

	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	ctx := contextPkg.WithSessionID(contextPkg.WithRequestID(context.Background(), requestID), claims.SessionID)

	logger := h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": claims.SessionID,
	})

	sess, err := h.assistantService.Attach(ctx, claims.SessionID, claims.UserName)
	if err != nil {
		logger.WithField("error", err.Error()).Warn("Assistant WebSocket rejected")
		if errors.Is(err, assistant.ErrSessionAttached) {
			closeWith(c, websocket.ClosePolicyViolation, err.Error())
		} else {
			closeWith(c, websocket.CloseTryAgainLater, err.Error())
		}
		return
	}

	logger.Info("Assistant WebSocket client connected")
	defer logger.Info("Assistant WebSocket client disconnected")

	c.SetReadLimit(maxMessageSize)

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.WithField("error", err.Error()).Debug("Error sending pong")
		}
		return nil
	})
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(maxReadTimeout))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeDirectives(c, sess, logger)
	}()

	h.readEvents(ctx, c, sess, logger)

	h.assistantService.Detach(claims.SessionID)
	<-writerDone
}

func (h *AssistantHandler) readEvents(ctx context.Context, c *websocket.Conn, sess assistantService.ISession, logger *logrus.Entry) {
	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.WithField("error", err.Error()).Error("Error setting read deadline")
			return
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.WithField("error", err.Error()).Error("Assistant WebSocket error")
			} else {
				logger.Debug("Assistant WebSocket connection closed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			logger.WithField("message_type", messageType).Warn("Received unexpected message type")
			continue
		}

		if err := sess.HandleEvent(ctx, message); err != nil {
			if errors.Is(err, assistant.ErrSessionNotFound) {
				return
			}
			logger.WithField("error", err.Error()).Debug("Assistant event rejected")
			sess.ReportError(err)
		}
	}
}

func (h *AssistantHandler) writeDirectives(c *websocket.Conn, sess assistantService.ISession, logger *logrus.Entry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case d := <-sess.Directives():
			payload, err := jsoniter.Marshal(d)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"directive": d.Type,
					"error":     err.Error(),
				}).Error("Error encoding directive")
				continue
			}

			if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				logger.WithField("error", err.Error()).Error("Error setting write deadline")
				_ = c.Close()
				return
			}

			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.WithField("error", err.Error()).Debug("Error writing directive")
				_ = c.Close()
				return
			}

		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logger.WithField("error", err.Error()).Debug("Error sending ping")
				_ = c.Close()
				return
			}

		case <-sess.Done():
			closeWith(c, websocket.CloseNormalClosure, "session closed")
			return
		}
	}
}

// closeWith sends a close frame and shuts the connection so a blocked reader
// returns.
func closeWith(c *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.Close()
}
