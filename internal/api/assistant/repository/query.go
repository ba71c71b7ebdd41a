package assistantRepository

const (
	queryCreateInteraction = `
		INSERT INTO assistant_interactions (
			id, session_id, utterance, intent, reply, dropped, created_at
		) VALUES (
			:id, :session_id, :utterance, :intent, :reply, :dropped, :created_at
		)
	`

	queryGetInteractionsBySessionID = `
		SELECT
			id, session_id, utterance, intent, reply, dropped, created_at
		FROM assistant_interactions
		WHERE session_id = :session_id
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountInteractionsBySessionID = `
		SELECT COUNT(*) FROM assistant_interactions WHERE session_id = :session_id
	`
)
