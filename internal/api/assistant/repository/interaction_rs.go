package assistantRepository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"webby-assistant/internal/entity"
	contextPkg "webby-assistant/pkg/context"
)

func (r *interactionRepository) CreateInteraction(ctx context.Context, in entity.Interaction) error {
	query, args, err := sqlx.Named(queryCreateInteraction, in)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": in.SessionID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateInteraction")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": in.SessionID,
			"error":      err.Error(),
		}).Error("Failed to insert interaction")
		return err
	}

	return nil
}

func (r *interactionRepository) GetInteractionsBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]entity.Interaction, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"session_id": sessionID,
		"limit":      limit,
		"offset":     offset,
	}

	countQuery, countArgs, err := sqlx.Named(queryCountInteractionsBySessionID, argsKV)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.q.GetContext(ctx, &total, r.q.Rebind(countQuery), countArgs...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to count interactions")
		return nil, 0, err
	}

	query, args, err := sqlx.Named(queryGetInteractionsBySessionID, argsKV)
	if err != nil {
		return nil, 0, err
	}

	interactions := []entity.Interaction{}
	if err := r.q.SelectContext(ctx, &interactions, r.q.Rebind(query), args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to select interactions")
		return nil, 0, err
	}

	return interactions, total, nil
}
