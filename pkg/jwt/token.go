package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	sessionAudience   = "assistant-session"
)

var (
	ErrMissingToken  = errors.New("missing session token")
	ErrSecretNotSet  = errors.New("JWT secret not configured")
	ErrInvalidClaims = errors.New("token claims are missing required fields")
)

// SessionClaims is what a session ticket proves: which assistant session the
// bearer may attach to, and under which display name.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserName  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func secret(envKey string) ([]byte, error) {
	key := os.Getenv(envKey)
	if key == "" {
		return nil, ErrSecretNotSet
	}
	return []byte(key), nil
}

// SignSession issues a ticket for sessionID that expires after ttl.
func SignSession(sessionID, userName string, ttl time.Duration) (string, time.Time, error) {
	key, err := secret(AccessTokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := SessionClaims{
		SessionID: sessionID,
		UserName:  userName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	logrus.WithField("session_id", sessionID).Debug("Signing session ticket")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign session ticket")
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func VerifySession(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	key, err := secret(AccessTokenSecret)
	if err != nil {
		return nil, err
	}

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithAudience(sessionAudience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if claims.SessionID == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// TokenFromRequest reads the ticket from "Authorization: Bearer" or, for
// WebSocket upgrades where browsers cannot set headers, the token query param.
func TokenFromRequest(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

func GetSessionClaims(c *fiber.Ctx) (*SessionClaims, error) {
	claims, ok := c.Locals("session").(*SessionClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
