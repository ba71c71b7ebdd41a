package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	chatKeyPrefix = "assistant:chat:"
	chatMaxLen    = 100
	chatTTL       = 24 * time.Hour
)

// ChatRecord is one chat log line as stored in the per-session list.
type ChatRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type IRedis interface {
	AppendChat(ctx context.Context, sessionID string, record ChatRecord) error
	GetChat(ctx context.Context, sessionID string) ([]ChatRecord, error)
	DeleteChat(ctx context.Context, sessionID string) error
	Close() error
}

type redisClient struct {
	client redis.UniversalClient
	log    *logrus.Logger
}

// New connects using REDIS_ADDRESS, REDIS_PASSWORD and REDIS_DB. A failed ping
// is logged; commands will keep failing until the server is reachable.
func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return NewWithClient(client, log)
}

func NewWithClient(client redis.UniversalClient, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

func chatKey(sessionID string) string {
	return chatKeyPrefix + sessionID
}

// AppendChat pushes record and keeps only the newest entries. The TTL slides
// with every write.
func (r *redisClient) AppendChat(ctx context.Context, sessionID string, record ChatRecord) error {
	payload, err := jsoniter.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal chat record: %w", err)
	}

	key := chatKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -chatMaxLen, -1)
	pipe.Expire(ctx, key, chatTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error appending chat record")
		return err
	}

	return nil
}

func (r *redisClient) GetChat(ctx context.Context, sessionID string) ([]ChatRecord, error) {
	values, err := r.client.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []ChatRecord{}, nil
	} else if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error reading chat log")
		return nil, err
	}

	records := make([]ChatRecord, 0, len(values))
	for _, v := range values {
		var record ChatRecord
		if err := jsoniter.UnmarshalFromString(v, &record); err != nil {
			r.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Skipping malformed chat record")
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *redisClient) DeleteChat(ctx context.Context, sessionID string) error {
	result, err := r.client.Del(ctx, chatKey(sessionID)).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error deleting chat log")
		return err
	}

	if result == 0 {
		r.log.WithField("session_id", sessionID).Debug("Chat log not found for deletion")
	}

	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
