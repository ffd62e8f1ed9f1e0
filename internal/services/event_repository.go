package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
)

type eventRepositoryImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewEventRepository(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) EventRepository {
	return &eventRepositoryImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectEventColumns = `
SELECT e.id,
       e.owner_id,
       u.user_name,
       e.title,
       e.description,
       e.start_date,
       e.end_date,
       e.is_done,
       e.created_at,
       e.updated_at
FROM events e
JOIN users u ON u.id = e.owner_id
`

func scanEvent(row pgx.Row) (*models.Event, error) {
	event := new(models.Event)
	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&event.OwnerName,
		&event.Title,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.IsDone,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepositoryImpl) GetEvents(ctx context.Context, userID string, isAdmin bool) ([]*models.Event, error) {
	const selectEventsQuery = selectEventColumns + `
WHERE $1 OR e.owner_id = $2
ORDER BY e.start_date
`
	return r.queryEvents(ctx, selectEventsQuery, isAdmin, userID)
}

func (r *eventRepositoryImpl) GetEventByID(ctx context.Context, id int64, userID string, isAdmin bool) (*models.Event, error) {
	const selectEventByIDQuery = selectEventColumns + `
WHERE e.id = $1 AND ($2 OR e.owner_id = $3)
`
	event, err := scanEvent(r.pgPool.QueryRow(
		ctx,
		selectEventByIDQuery,
		id,
		isAdmin,
		userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Int64("event_id", id).
				Str("user_id", userID).
				Bool("is_admin", isAdmin).
				Msg("event not found")
			return nil, ErrEventNotFound
		}

		r.logger.Error().
			Err(err).
			Int64("event_id", id).
			Msg("failed to select event by id")
		return nil, err
	}
	r.logger.Debug().
		Int64("event_id", event.ID).
		Msg("selected event by id")
	return event, nil
}

func (r *eventRepositoryImpl) GetEventsByOwner(ctx context.Context, ownerID string) ([]*models.Event, error) {
	const selectEventsByOwnerQuery = selectEventColumns + `
WHERE e.owner_id = $1
ORDER BY e.start_date
`
	return r.queryEvents(ctx, selectEventsByOwnerQuery, ownerID)
}

func (r *eventRepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.pgPool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select events")
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan event")
			return nil, err
		}
		events = append(events, event)
	}

	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	r.logger.Debug().
		Int("count", len(events)).
		Msg("selected events")
	return events, nil
}

func (r *eventRepositoryImpl) AddEvent(ctx context.Context, event *models.Event) error {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	const insertEventQuery = `
INSERT INTO events (owner_id,
                    title,
                    description,
                    start_date,
                    end_date,
                    is_done,
                    created_at,
                    updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, (SELECT user_name FROM users WHERE id = $1)
`
	err := r.pgPool.QueryRow(
		ctx,
		insertEventQuery,
		event.OwnerID,
		event.Title,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.IsDone,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(
		&event.ID,
		&event.OwnerName,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("owner_id", event.OwnerID).
			Msg("failed to insert event")
		return err
	}

	r.logger.Info().
		Int64("event_id", event.ID).
		Str("owner_id", event.OwnerID).
		Msg("created event")
	return nil
}

func (r *eventRepositoryImpl) UpdateEvent(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()

	const updateEventQuery = `
UPDATE events
SET title = $1,
    description = $2,
    start_date = $3,
    end_date = $4,
    is_done = $5,
    updated_at = $6
WHERE id = $7
`
	tag, err := r.pgPool.Exec(
		ctx,
		updateEventQuery,
		event.Title,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.IsDone,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("event_id", event.ID).
			Msg("failed to update event")
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Error().
			Int64("event_id", event.ID).
			Msg("event not found")
		return ErrEventNotFound
	}

	r.logger.Info().
		Int64("event_id", event.ID).
		Bool("is_done", event.IsDone).
		Msg("updated event")
	return nil
}

func (r *eventRepositoryImpl) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := r.pgPool.Begin(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const deleteTasksByEventIDQuery = `
DELETE FROM tasks
WHERE event_id = $1
`
	tag, err := tx.Exec(
		ctx,
		deleteTasksByEventIDQuery,
		id,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("event_id", id).
			Msg("failed to delete tasks by event id")
		return err
	}
	r.logger.Debug().
		Int64("event_id", id).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted tasks by event id")

	const deleteEventQuery = `
DELETE FROM events
WHERE id = $1
`
	tag, err = tx.Exec(
		ctx,
		deleteEventQuery,
		id,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("event_id", id).
			Msg("failed to delete event")
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Error().
			Int64("event_id", id).
			Msg("event not found")
		return ErrEventNotFound
	}

	err = tx.Commit(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	r.logger.Info().
		Int64("event_id", id).
		Msg("deleted event")
	return nil
}
