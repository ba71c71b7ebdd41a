package assistant

type chatEntry struct {
	msg    ChatMessage
	expiry ITimer
}

// chatLog keeps the newest messages, oldest first.
type chatLog struct {
	capacity int
	entries  []chatEntry
}

func newChatLog(capacity int) *chatLog {
	return &chatLog{capacity: capacity}
}

// push appends msg and returns the entries evicted to stay within capacity.
// Evicted entries have their expiry timers stopped.
func (l *chatLog) push(msg ChatMessage, expiry ITimer) []ChatMessage {
	l.entries = append(l.entries, chatEntry{msg: msg, expiry: expiry})

	var evicted []ChatMessage
	for len(l.entries) > l.capacity {
		oldest := l.entries[0]
		l.entries = l.entries[1:]
		stopTimer(oldest.expiry)
		evicted = append(evicted, oldest.msg)
	}

	return evicted
}

func (l *chatLog) remove(id string) bool {
	for i, e := range l.entries {
		if e.msg.ID == id {
			stopTimer(e.expiry)
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *chatLog) snapshot() []ChatMessage {
	out := make([]ChatMessage, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.msg)
	}
	return out
}

func (l *chatLog) clear() {
	for _, e := range l.entries {
		stopTimer(e.expiry)
	}
	l.entries = nil
}
