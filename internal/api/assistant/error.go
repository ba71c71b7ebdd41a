package assistant

import "webby-assistant/pkg/response"

var (
	ErrSessionNotFound     = response.NewError(404, "assistant session not found")
	ErrSessionForbidden    = response.NewError(403, "token does not grant access to this session")
	ErrSessionAttached     = response.NewError(409, "assistant session already has a live connection")
	ErrSessionLimitReached = response.NewError(503, "too many live assistant sessions")
	ErrCreateSession       = response.NewError(500, "failed to create assistant session")
	ErrInvalidEvent        = response.NewError(400, "invalid assistant event")
	ErrEventRateLimited    = response.NewError(429, "too many assistant events")
	ErrHistoryUnavailable  = response.NewError(503, "conversation history is unavailable")
	ErrSoundNotFound       = response.NewError(404, "sound not found")
)
