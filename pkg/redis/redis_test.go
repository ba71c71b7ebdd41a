package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (IRedis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger, _ := test.NewNullLogger()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := NewWithClient(client, logger)
	t.Cleanup(func() { _ = r.Close() })

	return r, mr
}

func record(i int) ChatRecord {
	return ChatRecord{
		ID:        fmt.Sprintf("m-%d", i),
		Text:      fmt.Sprintf("line %d", i),
		Sender:    "user",
		Timestamp: time.Date(2024, 3, 1, 14, 0, i, 0, time.UTC),
	}
}

func TestRedis_AppendChat(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the newest records", func(t *testing.T) {
		r, _ := newTestRedis(t)

		for i := 1; i <= chatMaxLen+5; i++ {
			require.NoError(t, r.AppendChat(ctx, "s1", record(i)))
		}

		records, err := r.GetChat(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, chatMaxLen)
		assert.Equal(t, "m-6", records[0].ID)
		assert.Equal(t, record(chatMaxLen+5), records[len(records)-1])
	})

	t.Run("every write slides the ttl", func(t *testing.T) {
		r, mr := newTestRedis(t)

		require.NoError(t, r.AppendChat(ctx, "s1", record(1)))
		assert.Equal(t, chatTTL, mr.TTL(chatKey("s1")))

		mr.FastForward(time.Hour)
		require.NoError(t, r.AppendChat(ctx, "s1", record(2)))
		assert.Equal(t, chatTTL, mr.TTL(chatKey("s1")))

		mr.FastForward(chatTTL + time.Second)
		records, err := r.GetChat(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("sessions do not share a log", func(t *testing.T) {
		r, _ := newTestRedis(t)

		require.NoError(t, r.AppendChat(ctx, "s1", record(1)))
		require.NoError(t, r.AppendChat(ctx, "s2", record(2)))

		records, err := r.GetChat(ctx, "s2")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "m-2", records[0].ID)
	})
}

func TestRedis_GetChat(t *testing.T) {
	ctx := context.Background()

	t.Run("missing log is empty", func(t *testing.T) {
		r, _ := newTestRedis(t)

		records, err := r.GetChat(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("malformed entries are skipped", func(t *testing.T) {
		r, mr := newTestRedis(t)

		require.NoError(t, r.AppendChat(ctx, "s1", record(1)))
		_, err := mr.RPush(chatKey("s1"), "not json")
		require.NoError(t, err)
		require.NoError(t, r.AppendChat(ctx, "s1", record(2)))

		records, err := r.GetChat(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "m-2", records[1].ID)
	})

	t.Run("server errors are returned", func(t *testing.T) {
		r, mr := newTestRedis(t)
		mr.SetError("ERR server unavailable")

		_, err := r.GetChat(ctx, "s1")
		assert.Error(t, err)
	})
}

func TestRedis_DeleteChat(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	require.NoError(t, r.AppendChat(ctx, "s1", record(1)))
	require.NoError(t, r.DeleteChat(ctx, "s1"))
	assert.False(t, mr.Exists(chatKey("s1")))

	require.NoError(t, r.DeleteChat(ctx, "s1"))
}
