package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatLog_Push(t *testing.T) {
	t.Run("evicts the oldest past capacity and stops its timer", func(t *testing.T) {
		log := newChatLog(2)
		timers := []*manualTimer{{}, {}, {}}

		assert.Empty(t, log.push(ChatMessage{ID: "m-1"}, timers[0]))
		assert.Empty(t, log.push(ChatMessage{ID: "m-2"}, timers[1]))

		evicted := log.push(ChatMessage{ID: "m-3"}, timers[2])
		assert.Len(t, evicted, 1)
		assert.Equal(t, "m-1", evicted[0].ID)
		assert.True(t, timers[0].stopped)
		assert.False(t, timers[1].stopped)

		var ids []string
		for _, m := range log.snapshot() {
			ids = append(ids, m.ID)
		}
		assert.Equal(t, []string{"m-2", "m-3"}, ids)
	})
}

func TestChatLog_Remove(t *testing.T) {
	log := newChatLog(5)
	timer := &manualTimer{}
	log.push(ChatMessage{ID: "m-1"}, timer)
	log.push(ChatMessage{ID: "m-2"}, nil)

	assert.True(t, log.remove("m-1"))
	assert.True(t, timer.stopped)
	assert.False(t, log.remove("m-1"))
	assert.Len(t, log.snapshot(), 1)

	log.clear()
	assert.Empty(t, log.snapshot())
}
