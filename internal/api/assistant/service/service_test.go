package assistantService

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webby-assistant/internal/api/assistant"
	core "webby-assistant/pkg/assistant"
	"webby-assistant/pkg/assistant/assistanttest"
	"webby-assistant/pkg/audio"
	jwtPkg "webby-assistant/pkg/jwt"
	"webby-assistant/pkg/redis"
	"webby-assistant/pkg/utils"
)

type fakeRedis struct {
	mu    sync.Mutex
	chats map[string][]redis.ChatRecord
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{chats: make(map[string][]redis.ChatRecord)}
}

func (f *fakeRedis) AppendChat(ctx context.Context, sessionID string, record redis.ChatRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[sessionID] = append(f.chats[sessionID], record)
	return nil
}

func (f *fakeRedis) GetChat(ctx context.Context, sessionID string) ([]redis.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]redis.ChatRecord(nil), f.chats[sessionID]...), nil
}

func (f *fakeRedis) DeleteChat(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chats, sessionID)
	return nil
}

func (f *fakeRedis) Close() error { return nil }

type fixture struct {
	svc   IAssistantService
	clock *assistanttest.Clock
	redis *fakeRedis
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	clock := assistanttest.NewClock(time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC))
	fr := newFakeRedis()

	sounds, err := audio.NewSoundBank(&audio.Config{FileSys: afero.NewMemMapFs()})
	require.NoError(t, err)
	require.NoError(t, sounds.Render(audio.ActivationKey, audio.ActivationChime))

	cfg := DefaultConfig(core.DefaultConfig())
	cfg.Clock = clock
	for _, m := range mutate {
		m(cfg)
	}

	svc := NewAssistantService(logger, validator.New(), nil, fr, utils.New(), sounds, cfg)
	t.Cleanup(svc.Shutdown)

	return &fixture{svc: svc, clock: clock, redis: fr}
}

func drain(sess ISession) []assistant.Directive {
	var out []assistant.Directive
	for {
		select {
		case d := <-sess.Directives():
			out = append(out, d)
		default:
			return out
		}
	}
}

func directiveTypes(ds []assistant.Directive) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Type)
	}
	return out
}

const (
	capabilitiesEvent = `{"type":"capabilities","payload":{"recognition":true,"synthesis":true,"microphone":true,"voices":[{"name":"Google US English","lang":"en-US"}]}}`
	wakeEvent         = `{"type":"recognition_result","payload":{"results":[["hey webby"]]}}`
)

func TestAssistantService_CreateSession(t *testing.T) {
	t.Setenv(jwtPkg.AccessTokenSecret, "test-secret")
	f := newFixture(t)

	res, err := f.svc.CreateSession(context.Background(), assistant.CreateSessionRequest{UserName: "Ofir"})
	require.NoError(t, err)
	assert.Contains(t, res.SessionID, "as_")

	claims, err := jwtPkg.VerifySession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, claims.SessionID)
	assert.Equal(t, "Ofir", claims.UserName)
}

func TestAssistantService_CreateSessionWithoutSecret(t *testing.T) {
	t.Setenv(jwtPkg.AccessTokenSecret, "")
	f := newFixture(t)

	_, err := f.svc.CreateSession(context.Background(), assistant.CreateSessionRequest{})
	assert.ErrorIs(t, err, assistant.ErrCreateSession)
}

func TestAssistantService_Attach(t *testing.T) {
	t.Run("one live connection per session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		_, err = f.svc.Attach(context.Background(), "as_1", "")
		assert.ErrorIs(t, err, assistant.ErrSessionAttached)
		assert.Equal(t, 1, f.svc.LiveSessions())

		f.svc.Detach("as_1")
		assert.Equal(t, 0, f.svc.LiveSessions())

		_, err = f.svc.Attach(context.Background(), "as_1", "")
		assert.NoError(t, err)
	})

	t.Run("live sessions are capped", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.MaxSessions = 1 })

		_, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		_, err = f.svc.Attach(context.Background(), "as_2", "")
		assert.ErrorIs(t, err, assistant.ErrSessionLimitReached)
	})

	t.Run("detach closes the session", func(t *testing.T) {
		f := newFixture(t)

		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		f.svc.Detach("as_1")
		select {
		case <-sess.Done():
		default:
			t.Fatal("session still open after detach")
		}

		err = sess.HandleEvent(context.Background(), []byte(wakeEvent))
		assert.ErrorIs(t, err, assistant.ErrSessionNotFound)
	})
}

func TestSession_HandleEvent(t *testing.T) {
	t.Run("capabilities start listening", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(capabilitiesEvent)))
		assert.Contains(t, directiveTypes(drain(sess)), assistant.DirectiveStartListening)
	})

	t.Run("wake word greets the attached user", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Attach(context.Background(), "as_1", "Dana")
		require.NoError(t, err)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(capabilitiesEvent)))
		drain(sess)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(wakeEvent)))
		ds := drain(sess)

		var speaks []core.Utterance
		var sound *assistant.PlaySoundPayload
		for _, d := range ds {
			switch p := d.Payload.(type) {
			case assistant.SpeakPayload:
				speaks = append(speaks, p.Utterance)
			case assistant.PlaySoundPayload:
				sound = &p
			}
		}

		require.Len(t, speaks, 1)
		assert.Equal(t, "Hi Dana! How can I help you?", speaks[0].Text)
		require.NotNil(t, sound)
		assert.Equal(t, "/api/v1/assistant/assets/activation.wav", sound.URL)
	})

	t.Run("speech end acknowledges the active utterance", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(capabilitiesEvent)))
		require.NoError(t, sess.HandleEvent(context.Background(), []byte(wakeEvent)))

		var id string
		for _, d := range drain(sess) {
			if p, ok := d.Payload.(assistant.SpeakPayload); ok {
				id = p.Utterance.ID
			}
		}
		require.NotEmpty(t, id)

		ack := `{"type":"speech_end","payload":{"utterance_id":"` + id + `"}}`
		assert.NoError(t, sess.HandleEvent(context.Background(), []byte(ack)))
	})

	t.Run("malformed events are rejected", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		for _, raw := range []string{
			`not json`,
			`{"type":"dance"}`,
			`{"type":"recognition_result"}`,
			`{"type":"recognition_result","payload":{"results":[]}}`,
			`{"type":"speech_end","payload":{}}`,
		} {
			err := sess.HandleEvent(context.Background(), []byte(raw))
			assert.ErrorIs(t, err, assistant.ErrInvalidEvent, raw)
		}
	})

	t.Run("events are rate limited", func(t *testing.T) {
		f := newFixture(t, func(c *Config) {
			c.EventRate = 0
			c.EventBurst = 2
		})
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		start := []byte(`{"type":"recognition_start"}`)
		require.NoError(t, sess.HandleEvent(context.Background(), start))
		require.NoError(t, sess.HandleEvent(context.Background(), start))
		assert.ErrorIs(t, sess.HandleEvent(context.Background(), start), assistant.ErrEventRateLimited)
	})

	t.Run("a client that stops reading loses the session", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.OutboxSize = 2 })
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(capabilitiesEvent)))

		assert.Eventually(t, func() bool {
			select {
			case <-sess.Done():
				return true
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})
}

func TestAssistantService_History(t *testing.T) {
	t.Run("chat lines reach redis", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Attach(context.Background(), "as_1", "")
		require.NoError(t, err)

		require.NoError(t, sess.HandleEvent(context.Background(), []byte(capabilitiesEvent)))
		require.NoError(t, sess.HandleEvent(context.Background(), []byte(wakeEvent)))

		f.svc.Shutdown()

		res, err := f.svc.GetChatHistory(context.Background(), "as_1")
		require.NoError(t, err)
		require.Len(t, res.Messages, 1)
		assert.Equal(t, core.SenderAssistant, res.Messages[0].Sender)
		assert.Equal(t, "Hi! How can I help you?", res.Messages[0].Text)
	})

	t.Run("interactions need a database", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.GetInteractions(context.Background(), "as_1", 1, 20)
		assert.ErrorIs(t, err, assistant.ErrHistoryUnavailable)
	})
}

func TestAssistantService_Sound(t *testing.T) {
	f := newFixture(t)

	data, err := f.svc.Sound(context.Background(), audio.ActivationKey)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))

	_, err = f.svc.Sound(context.Background(), "missing")
	assert.ErrorIs(t, err, assistant.ErrSoundNotFound)
}
