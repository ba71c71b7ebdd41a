package entity

import "time"

// Interaction is one classified user utterance and what the assistant did
// with it.
type Interaction struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Utterance string    `db:"utterance"`
	Intent    string    `db:"intent"`
	Reply     string    `db:"reply"`
	Dropped   bool      `db:"dropped"`
	CreatedAt time.Time `db:"created_at"`
}
