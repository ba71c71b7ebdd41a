package assistantService

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"webby-assistant/internal/api/assistant"
	assistantRepository "webby-assistant/internal/api/assistant/repository"
	"webby-assistant/pkg/audio"
	jwtPkg "webby-assistant/pkg/jwt"
	"webby-assistant/pkg/redis"
	"webby-assistant/pkg/response"
	"webby-assistant/pkg/utils"

	core "webby-assistant/pkg/assistant"
)

type IAssistantService interface {
	CreateSession(ctx context.Context, req assistant.CreateSessionRequest) (*assistant.CreateSessionResponse, error)
	Attach(ctx context.Context, sessionID, userName string) (ISession, error)
	Detach(sessionID string)
	LiveSessions() int

	GetChatHistory(ctx context.Context, sessionID string) (*assistant.ChatHistoryResponse, error)
	GetInteractions(ctx context.Context, sessionID string, page, limit int) (*assistant.InteractionHistoryResponse, error)
	Sound(ctx context.Context, name string) ([]byte, error)

	Shutdown()
}

type Config struct {
	Assistant   core.Config
	SessionTTL  time.Duration
	MaxSessions int
	EventRate   rate.Limit
	EventBurst  int
	OutboxSize  int
	SoundURL    func(name string) string
	Clock       core.IClock
}

func DefaultConfig(assistantCfg core.Config) *Config {
	return &Config{
		Assistant:   assistantCfg,
		SessionTTL:  12 * time.Hour,
		MaxSessions: 500,
		EventRate:   20,
		EventBurst:  40,
		OutboxSize:  256,
		SoundURL: func(name string) string {
			return "/api/v1/assistant/assets/" + name + ".wav"
		},
	}
}

type assistantService struct {
	log       *logrus.Logger
	validator *validator.Validate
	repo      assistantRepository.Repository
	redis     redis.IRedis
	utils     utils.IUtils
	sounds    audio.ISoundBank
	config    *Config
	history   *historyWriter

	mu       sync.Mutex
	sessions map[string]*session
}

// NewAssistantService wires the session registry. repo and redisClient may be
// nil; history is then not persisted and the history endpoints report it as
// unavailable.
func NewAssistantService(
	log *logrus.Logger,
	validate *validator.Validate,
	repo assistantRepository.Repository,
	redisClient redis.IRedis,
	utils utils.IUtils,
	sounds audio.ISoundBank,
	config *Config,
) IAssistantService {
	if config.Clock == nil {
		config.Clock = core.NewRealClock()
	}

	return &assistantService{
		log:       log,
		validator: validate,
		repo:      repo,
		redis:     redisClient,
		utils:     utils,
		sounds:    sounds,
		config:    config,
		history:   newHistoryWriter(log, repo, redisClient, utils),
		sessions:  make(map[string]*session),
	}
}

func (s *assistantService) CreateSession(ctx context.Context, req assistant.CreateSessionRequest) (*assistant.CreateSessionResponse, error) {
	sessionID, err := s.utils.NewSessionID()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to generate session id")
		return nil, response.Wrap(assistant.ErrCreateSession, err)
	}

	token, expiresAt, err := jwtPkg.SignSession(sessionID, req.UserName, s.config.SessionTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to sign session ticket")
		return nil, response.Wrap(assistant.ErrCreateSession, err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"expires_at": expiresAt,
	}).Info("Assistant session created")

	return &assistant.CreateSessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Attach starts a live conversation for sessionID. A session has at most one
// live connection.
func (s *assistantService) Attach(ctx context.Context, sessionID, userName string) (ISession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return nil, assistant.ErrSessionAttached
	}
	if s.config.MaxSessions > 0 && len(s.sessions) >= s.config.MaxSessions {
		return nil, assistant.ErrSessionLimitReached
	}

	cfg := s.config.Assistant
	if userName != "" {
		cfg.UserName = userName
	}

	sess, err := newSession(sessionConfig{
		id:        sessionID,
		assistant: cfg,
		clock:     s.config.Clock,
		limiter:   rate.NewLimiter(s.config.EventRate, s.config.EventBurst),
		outbox:    s.config.OutboxSize,
		soundURL:  s.config.SoundURL,
		log:       s.log,
		validator: s.validator,
		observer:  s.history.observer(sessionID),
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to start assistant session")
		return nil, response.Wrap(assistant.ErrCreateSession, err)
	}

	s.sessions[sessionID] = sess

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"live":       len(s.sessions),
	}).Info("Assistant session attached")

	return sess, nil
}

func (s *assistantService) Detach(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return
	}

	sess.Close()
	s.log.WithField("session_id", sessionID).Info("Assistant session detached")
}

func (s *assistantService) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *assistantService) GetChatHistory(ctx context.Context, sessionID string) (*assistant.ChatHistoryResponse, error) {
	if s.redis == nil {
		return nil, assistant.ErrHistoryUnavailable
	}

	records, err := s.redis.GetChat(ctx, sessionID)
	if err != nil {
		return nil, response.Wrap(assistant.ErrHistoryUnavailable, err)
	}

	messages := make([]core.ChatMessage, 0, len(records))
	for _, r := range records {
		messages = append(messages, core.ChatMessage{
			ID:        r.ID,
			Text:      r.Text,
			Sender:    core.Sender(r.Sender),
			Timestamp: r.Timestamp,
		})
	}

	return &assistant.ChatHistoryResponse{SessionID: sessionID, Messages: messages}, nil
}

func (s *assistantService) GetInteractions(ctx context.Context, sessionID string, page, limit int) (*assistant.InteractionHistoryResponse, error) {
	if s.repo == nil {
		return nil, assistant.ErrHistoryUnavailable
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, response.Wrap(assistant.ErrHistoryUnavailable, err)
	}

	rows, total, err := client.Interactions.GetInteractionsBySessionID(ctx, sessionID, limit, (page-1)*limit)
	if err != nil {
		return nil, response.Wrap(assistant.ErrHistoryUnavailable, err)
	}

	out := make([]assistant.InteractionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, assistant.InteractionResponse{
			ID:        r.ID,
			SessionID: r.SessionID,
			Utterance: r.Utterance,
			Intent:    r.Intent,
			Reply:     r.Reply,
			Dropped:   r.Dropped,
			CreatedAt: r.CreatedAt,
		})
	}

	return &assistant.InteractionHistoryResponse{
		Interactions: out,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

func (s *assistantService) Sound(ctx context.Context, name string) ([]byte, error) {
	if s.sounds == nil || name == "" || strings.ContainsAny(name, "/\\.") || !s.sounds.Has(name) {
		return nil, assistant.ErrSoundNotFound
	}

	data, err := s.sounds.Read(name)
	if err != nil {
		return nil, response.Wrap(assistant.ErrSoundNotFound, err)
	}
	return data, nil
}

// Shutdown closes every live session and flushes pending history writes.
func (s *assistantService) Shutdown() {
	s.mu.Lock()
	live := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		live = append(live, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range live {
		sess.Close()
	}

	s.history.close()
}
