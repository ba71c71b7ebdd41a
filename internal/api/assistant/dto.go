package assistant

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	core "webby-assistant/pkg/assistant"
)

// Inbound event types, browser to service.
const (
	EventCapabilities      = "capabilities"
	EventRecognitionStart  = "recognition_start"
	EventRecognitionEnd    = "recognition_end"
	EventRecognitionError  = "recognition_error"
	EventRecognitionResult = "recognition_result"
	EventSpeechEnd         = "speech_end"
	EventSpeechError       = "speech_error"
)

// Outbound directive types, service to browser.
const (
	DirectiveStartListening = "start_listening"
	DirectiveStopListening  = "stop_listening"
	DirectiveSpeak          = "speak"
	DirectiveCancelSpeech   = "cancel_speech"
	DirectiveChatAppend     = "chat_append"
	DirectiveChatEvict      = "chat_evict"
	DirectiveNotify         = "notify"
	DirectiveSpeechBubble   = "speech_bubble"
	DirectiveSetVisible     = "set_visible"
	DirectivePulse          = "pulse"
	DirectiveHighlight      = "highlight"
	DirectivePlaySound      = "play_sound"
	DirectiveError          = "error"
)

type Event struct {
	Type    string              `json:"type" validate:"required,oneof=capabilities recognition_start recognition_end recognition_error recognition_result speech_end speech_error"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

type VoiceInfo struct {
	Name string `json:"name" validate:"required,max=200"`
	Lang string `json:"lang" validate:"max=35"`
}

type CapabilitiesPayload struct {
	Recognition bool        `json:"recognition"`
	Synthesis   bool        `json:"synthesis"`
	Microphone  bool        `json:"microphone"`
	Voices      []VoiceInfo `json:"voices" validate:"max=500,dive"`
}

type RecognitionErrorPayload struct {
	Error string `json:"error" validate:"required,max=64"`
}

// RecognitionResultPayload mirrors the browser's result list: results in
// delivery order, each with its alternatives in confidence order.
type RecognitionResultPayload struct {
	Results [][]string `json:"results" validate:"required,min=1,max=20,dive,max=10,dive,max=500"`
}

type SpeechEndPayload struct {
	UtteranceID string `json:"utterance_id" validate:"required,max=32"`
}

type SpeechErrorPayload struct {
	UtteranceID string `json:"utterance_id" validate:"max=32"`
	Error       string `json:"error" validate:"max=64"`
}

type Directive struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type SpeakPayload struct {
	Utterance core.Utterance `json:"utterance"`
}

type ChatAppendPayload struct {
	Message core.ChatMessage `json:"message"`
}

type ChatEvictPayload struct {
	ID string `json:"id"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type SetVisiblePayload struct {
	Entity   string     `json:"entity"`
	Visible  bool       `json:"visible"`
	Position *core.Vec3 `json:"position,omitempty"`
}

type PulsePayload struct {
	Target     string `json:"target"`
	DurationMS int64  `json:"duration_ms"`
}

type HighlightPayload struct {
	Target string `json:"target"`
}

type PlaySoundPayload struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	UserName string `json:"user_name" validate:"omitempty,max=40"`
}

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChatHistoryResponse struct {
	SessionID string             `json:"session_id"`
	Messages  []core.ChatMessage `json:"messages"`
}

type InteractionResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Utterance string    `json:"utterance"`
	Intent    string    `json:"intent"`
	Reply     string    `json:"reply,omitempty"`
	Dropped   bool      `json:"dropped"`
	CreatedAt time.Time `json:"created_at"`
}

type InteractionHistoryResponse struct {
	Interactions []InteractionResponse `json:"interactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
