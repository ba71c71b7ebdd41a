package assistantService

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"webby-assistant/internal/api/assistant"
	core "webby-assistant/pkg/assistant"
)

// bridge turns controller calls into directives for the browser. The
// controller calls it with its lock held, so sends never block: a full
// outbox means the client stopped reading and the session is torn down.
type bridge struct {
	sessionID string
	log       *logrus.Logger
	outbox    chan assistant.Directive
	soundURL  func(name string) string

	overflowOnce sync.Once
	overflow     chan struct{}
}

func newBridge(sessionID string, size int, soundURL func(string) string, log *logrus.Logger) *bridge {
	if size <= 0 {
		size = 64
	}
	return &bridge{
		sessionID: sessionID,
		log:       log,
		outbox:    make(chan assistant.Directive, size),
		soundURL:  soundURL,
		overflow:  make(chan struct{}),
	}
}

func (b *bridge) send(kind string, payload interface{}) {
	select {
	case b.outbox <- assistant.Directive{Type: kind, Payload: payload}:
	default:
		b.overflowOnce.Do(func() {
			b.log.WithFields(logrus.Fields{
				"session_id": b.sessionID,
				"directive":  kind,
			}).Warn("Directive outbox full, dropping session")
			close(b.overflow)
		})
	}
}

func (b *bridge) Start() error {
	b.send(assistant.DirectiveStartListening, nil)
	return nil
}

func (b *bridge) Stop() error {
	b.send(assistant.DirectiveStopListening, nil)
	return nil
}

func (b *bridge) Speak(u core.Utterance) error {
	b.send(assistant.DirectiveSpeak, assistant.SpeakPayload{Utterance: u})
	return nil
}

func (b *bridge) Cancel() error {
	b.send(assistant.DirectiveCancelSpeech, nil)
	return nil
}

func (b *bridge) AppendMessage(msg core.ChatMessage) {
	b.send(assistant.DirectiveChatAppend, assistant.ChatAppendPayload{Message: msg})
}

func (b *bridge) EvictMessage(id string) {
	b.send(assistant.DirectiveChatEvict, assistant.ChatEvictPayload{ID: id})
}

func (b *bridge) Notify(text string) {
	b.send(assistant.DirectiveNotify, assistant.TextPayload{Text: text})
}

func (b *bridge) SetSpeechBubble(text string) {
	b.send(assistant.DirectiveSpeechBubble, assistant.TextPayload{Text: text})
}

func (b *bridge) SetVisible(entity string, visible bool, position *core.Vec3) {
	b.send(assistant.DirectiveSetVisible, assistant.SetVisiblePayload{
		Entity:   entity,
		Visible:  visible,
		Position: position,
	})
}

func (b *bridge) Pulse(target string, d time.Duration) {
	b.send(assistant.DirectivePulse, assistant.PulsePayload{
		Target:     target,
		DurationMS: d.Milliseconds(),
	})
}

func (b *bridge) Highlight(target string) {
	b.send(assistant.DirectiveHighlight, assistant.HighlightPayload{Target: target})
}

func (b *bridge) PlaySound(name string) {
	payload := assistant.PlaySoundPayload{Name: name}
	if b.soundURL != nil {
		payload.URL = b.soundURL(name)
	}
	b.send(assistant.DirectivePlaySound, payload)
}

func (b *bridge) Error(message string) {
	b.send(assistant.DirectiveError, assistant.ErrorPayload{Message: message})
}
