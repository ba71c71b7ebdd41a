package assistant

import (
	"errors"
	"time"
)

var (
	ErrSearchInProgress = errors.New("search sequence already in progress")
	ErrClosed           = errors.New("controller closed")
	ErrAlreadyListening = errors.New("recognition already running")
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is a snapshot; the controller owns the live copy.
type ConversationState struct {
	Activated          bool          `json:"activated"`
	Listening          bool          `json:"listening"`
	Searching          bool          `json:"searching"`
	Speaking           bool          `json:"speaking"`
	Messages           []ChatMessage `json:"messages"`
	InactivityDeadline time.Time     `json:"inactivity_deadline,omitempty"`
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActivated Phase = "activated"
	PhaseSearching Phase = "searching"
)

func (s ConversationState) Phase() Phase {
	switch {
	case !s.Activated:
		return PhaseIdle
	case s.Searching:
		return PhaseSearching
	default:
		return PhaseActivated
	}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

type Utterance struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Lang   string  `json:"lang"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
	Voice  *Voice  `json:"voice,omitempty"`
}

type Capabilities struct {
	Recognition bool
	Synthesis   bool
	Microphone  bool
	Voices      []Voice
}

// Interaction describes one user utterance after classification.
type Interaction struct {
	Utterance string
	Intent    Intent
	Reply     string
	Dropped   bool
	At        time.Time
}

// ISpeechInput is continuous recognition on the client.
type ISpeechInput interface {
	Start() error
	Stop() error
}

// ISpeechOutput plays utterances. Speak replaces whatever is playing.
type ISpeechOutput interface {
	Speak(u Utterance) error
	Cancel() error
}

// IPresentation is driven one-way; the controller never reads it back.
type IPresentation interface {
	AppendMessage(msg ChatMessage)
	EvictMessage(id string)
	Notify(text string)
	SetSpeechBubble(text string)
	SetVisible(entity string, visible bool, position *Vec3)
	Pulse(target string, d time.Duration)
	Highlight(target string)
	PlaySound(name string)
}

// IObserver receives chat log and interaction records for persistence.
// Calls are made with the controller locked and must not block.
type IObserver interface {
	OnMessage(msg ChatMessage)
	OnInteraction(in Interaction)
}
