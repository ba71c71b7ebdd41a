package assistantService

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	assistantRepository "webby-assistant/internal/api/assistant/repository"
	"webby-assistant/internal/entity"
	core "webby-assistant/pkg/assistant"
	"webby-assistant/pkg/redis"
	"webby-assistant/pkg/utils"
)

const (
	historyQueueSize    = 1024
	historyWriteTimeout = 3 * time.Second
)

var errMissingPayload = errors.New("payload is required")

type historyJob struct {
	sessionID   string
	message     *core.ChatMessage
	interaction *core.Interaction
}

// historyWriter persists chat lines to redis and interactions to postgres on
// a single background worker. Enqueueing never blocks; a full queue drops the
// record.
type historyWriter struct {
	log   *logrus.Logger
	repo  assistantRepository.Repository
	redis redis.IRedis
	utils utils.IUtils

	jobs      chan historyJob
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func newHistoryWriter(log *logrus.Logger, repo assistantRepository.Repository, redisClient redis.IRedis, utils utils.IUtils) *historyWriter {
	w := &historyWriter{
		log:   log,
		repo:  repo,
		redis: redisClient,
		utils: utils,
		jobs:  make(chan historyJob, historyQueueSize),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

func (w *historyWriter) enabled() bool {
	return w.repo != nil || w.redis != nil
}

// observer returns nil when there is nowhere to write to.
func (w *historyWriter) observer(sessionID string) core.IObserver {
	if !w.enabled() {
		return nil
	}
	return &sessionObserver{writer: w, sessionID: sessionID}
}

func (w *historyWriter) enqueue(job historyJob) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	select {
	case w.jobs <- job:
	default:
		w.log.WithField("session_id", job.sessionID).Warn("History queue full, dropping record")
	}
}

func (w *historyWriter) run() {
	defer w.wg.Done()

	for job := range w.jobs {
		w.write(job)
	}
}

func (w *historyWriter) write(job historyJob) {
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	if job.message != nil && w.redis != nil {
		err := w.redis.AppendChat(ctx, job.sessionID, redis.ChatRecord{
			ID:        job.message.ID,
			Text:      job.message.Text,
			Sender:    string(job.message.Sender),
			Timestamp: job.message.Timestamp,
		})
		if err != nil {
			w.log.WithFields(logrus.Fields{
				"session_id": job.sessionID,
				"message_id": job.message.ID,
				"error":      err.Error(),
			}).Error("Failed to append chat history")
		}
	}

	if job.interaction != nil && w.repo != nil {
		w.writeInteraction(ctx, job.sessionID, *job.interaction)
	}
}

func (w *historyWriter) writeInteraction(ctx context.Context, sessionID string, in core.Interaction) {
	id, err := w.utils.NewULIDFromTimestamp(in.At)
	if err != nil {
		w.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to generate interaction id")
		return
	}

	client, err := w.repo.NewClient(false)
	if err != nil {
		w.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to open repository client")
		return
	}

	// Errors are logged by the repository.
	_ = client.Interactions.CreateInteraction(ctx, entity.Interaction{
		ID:        id,
		SessionID: sessionID,
		Utterance: in.Utterance,
		Intent:    string(in.Intent),
		Reply:     in.Reply,
		Dropped:   in.Dropped,
		CreatedAt: in.At,
	})
}

// close stops accepting records and waits for queued ones to be written.
func (w *historyWriter) close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobs)
		w.mu.Unlock()

		w.wg.Wait()
	})
}

type sessionObserver struct {
	writer    *historyWriter
	sessionID string
}

func (o *sessionObserver) OnMessage(msg core.ChatMessage) {
	o.writer.enqueue(historyJob{sessionID: o.sessionID, message: &msg})
}

func (o *sessionObserver) OnInteraction(in core.Interaction) {
	o.writer.enqueue(historyJob{sessionID: o.sessionID, interaction: &in})
}
