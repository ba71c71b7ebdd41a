package assistantService

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"webby-assistant/internal/api/assistant"
	core "webby-assistant/pkg/assistant"
	"webby-assistant/pkg/response"
)

// ISession is one live conversation bound to a single client connection.
type ISession interface {
	ID() string
	Directives() <-chan assistant.Directive
	Done() <-chan struct{}
	HandleEvent(ctx context.Context, raw []byte) error
	ReportError(err error)
	Close()
}

type sessionConfig struct {
	id        string
	assistant core.Config
	clock     core.IClock
	limiter   *rate.Limiter
	outbox    int
	soundURL  func(string) string
	log       *logrus.Logger
	validator *validator.Validate
	observer  core.IObserver
}

type session struct {
	id         string
	log        *logrus.Logger
	validator  *validator.Validate
	limiter    *rate.Limiter
	bridge     *bridge
	controller *core.Controller

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(cfg sessionConfig) (*session, error) {
	b := newBridge(cfg.id, cfg.outbox, cfg.soundURL, cfg.log)

	ctrl, err := core.New(core.Options{
		Config:       cfg.assistant,
		Logger:       cfg.log,
		Clock:        cfg.clock,
		Input:        b,
		Output:       b,
		Presentation: b,
		Observer:     cfg.observer,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		id:         cfg.id,
		log:        cfg.log,
		validator:  cfg.validator,
		limiter:    cfg.limiter,
		bridge:     b,
		controller: ctrl,
		done:       make(chan struct{}),
	}

	go func() {
		select {
		case <-b.overflow:
			s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

func (s *session) ID() string {
	return s.id
}

func (s *session) Directives() <-chan assistant.Directive {
	return s.bridge.outbox
}

// Done is closed once the session is closed, either explicitly or because the
// client stopped draining directives.
func (s *session) Done() <-chan struct{} {
	return s.done
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.controller.Close()
		close(s.done)
	})
}

// HandleEvent decodes one client event and feeds it to the controller.
func (s *session) HandleEvent(ctx context.Context, raw []byte) error {
	select {
	case <-s.done:
		return assistant.ErrSessionNotFound
	default:
	}

	if s.limiter != nil && !s.limiter.Allow() {
		return assistant.ErrEventRateLimited
	}

	var event assistant.Event
	if err := jsoniter.Unmarshal(raw, &event); err != nil {
		return response.Wrap(assistant.ErrInvalidEvent, err)
	}
	if err := s.validator.StructCtx(ctx, event); err != nil {
		return response.Wrap(assistant.ErrInvalidEvent, err)
	}

	switch event.Type {
	case assistant.EventCapabilities:
		var payload assistant.CapabilitiesPayload
		if err := s.decode(ctx, event, &payload); err != nil {
			return err
		}

		voices := make([]core.Voice, 0, len(payload.Voices))
		for _, v := range payload.Voices {
			voices = append(voices, core.Voice{Name: v.Name, Lang: v.Lang})
		}
		s.controller.Start(core.Capabilities{
			Recognition: payload.Recognition,
			Synthesis:   payload.Synthesis,
			Microphone:  payload.Microphone,
			Voices:      voices,
		})

	case assistant.EventRecognitionStart:
		s.controller.OnRecognitionStart()

	case assistant.EventRecognitionEnd:
		s.controller.OnRecognitionEnd()

	case assistant.EventRecognitionError:
		var payload assistant.RecognitionErrorPayload
		if err := s.decode(ctx, event, &payload); err != nil {
			return err
		}
		s.controller.OnRecognitionError(payload.Error)

	case assistant.EventRecognitionResult:
		var payload assistant.RecognitionResultPayload
		if err := s.decode(ctx, event, &payload); err != nil {
			return err
		}
		s.controller.OnTranscript(core.Transcript{Results: payload.Results})

	case assistant.EventSpeechEnd:
		var payload assistant.SpeechEndPayload
		if err := s.decode(ctx, event, &payload); err != nil {
			return err
		}
		s.controller.OnSpeechEnd(payload.UtteranceID)

	case assistant.EventSpeechError:
		var payload assistant.SpeechErrorPayload
		if err := s.decode(ctx, event, &payload); err != nil {
			return err
		}
		s.controller.OnSpeechError(payload.UtteranceID, payload.Error)
	}

	return nil
}

func (s *session) decode(ctx context.Context, event assistant.Event, dst interface{}) error {
	if len(event.Payload) == 0 {
		return response.Wrap(assistant.ErrInvalidEvent, errMissingPayload)
	}
	if err := jsoniter.Unmarshal(event.Payload, dst); err != nil {
		return response.Wrap(assistant.ErrInvalidEvent, err)
	}
	if err := s.validator.StructCtx(ctx, dst); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": s.id,
			"event":      event.Type,
			"error":      err.Error(),
		}).Debug("Rejected assistant event payload")
		return response.Wrap(assistant.ErrInvalidEvent, err)
	}
	return nil
}

// ReportError queues an error directive, typically after a rejected event.
func (s *session) ReportError(err error) {
	s.bridge.Error(err.Error())
}
