package assistantRepository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webby-assistant/internal/entity"
)

var interactionColumns = []string{"id", "session_id", "utterance", "intent", "reply", "dropped", "created_at"}

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, _ := test.NewNullLogger()
	return New(sqlx.NewDb(db, "postgres"), logger), mock
}

func TestInteractionRepository_CreateInteraction(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	in := entity.Interaction{
		ID:        "01HQ",
		SessionID: "s1",
		Utterance: "how are you",
		Intent:    "how_are_you",
		Reply:     "I'm doing well, thank you for asking!",
		CreatedAt: at,
	}

	t.Run("binds every column positionally", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(`INSERT INTO assistant_interactions[^$]+VALUES \(\s*\$1, \$2, \$3, \$4, \$5, \$6, \$7\s*\)`).
			WithArgs(in.ID, in.SessionID, in.Utterance, in.Intent, in.Reply, false, at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		client, err := repo.NewClient(false)
		require.NoError(t, err)
		require.NoError(t, client.Interactions.CreateInteraction(context.Background(), in))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failures are returned", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec("INSERT INTO assistant_interactions").WillReturnError(errors.New("connection reset"))

		client, err := repo.NewClient(false)
		require.NoError(t, err)
		assert.Error(t, client.Interactions.CreateInteraction(context.Background(), in))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transactional clients commit", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO assistant_interactions").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		client, err := repo.NewClient(true)
		require.NoError(t, err)
		require.NoError(t, client.Interactions.CreateInteraction(context.Background(), in))
		require.NoError(t, client.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInteractionRepository_GetInteractionsBySessionID(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

	t.Run("counts then pages newest first", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assistant_interactions WHERE session_id = $1")).
			WithArgs("s1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		mock.ExpectQuery(`WHERE session_id = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
			WithArgs("s1", 5, 5).
			WillReturnRows(sqlmock.NewRows(interactionColumns).
				AddRow("02", "s1", "bye", "farewell", "Goodbye! Have a great day!", false, at.Add(time.Second)).
				AddRow("01", "s1", "tell me a joke", "search", "", true, at))

		client, err := repo.NewClient(false)
		require.NoError(t, err)

		interactions, total, err := client.Interactions.GetInteractionsBySessionID(context.Background(), "s1", 5, 5)
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		require.Len(t, interactions, 2)
		assert.Equal(t, "02", interactions[0].ID)
		assert.True(t, interactions[1].Dropped)
		assert.Equal(t, at, interactions[1].CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty pages are not nil", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(interactionColumns))

		client, err := repo.NewClient(false)
		require.NoError(t, err)

		interactions, total, err := client.Interactions.GetInteractionsBySessionID(context.Background(), "s1", 20, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.NotNil(t, interactions)
		assert.Empty(t, interactions)
	})

	t.Run("count failures stop before the select", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("relation does not exist"))

		client, err := repo.NewClient(false)
		require.NoError(t, err)

		_, _, err = client.Interactions.GetInteractionsBySessionID(context.Background(), "s1", 20, 0)
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
