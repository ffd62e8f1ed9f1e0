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

type taskRepositoryImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskRepository(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskRepository {
	return &taskRepositoryImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectTaskColumns = `
SELECT t.id,
       t.event_id,
       t.owner_id,
       u.user_name,
       t.title,
       t.description,
       t.start_date,
       t.end_date,
       t.is_done,
       e.is_done,
       t.created_at,
       t.updated_at
FROM tasks t
JOIN events e ON e.id = t.event_id
JOIN users u ON u.id = t.owner_id
`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.EventID,
		&task.OwnerID,
		&task.OwnerName,
		&task.Title,
		&task.Description,
		&task.StartDate,
		&task.EndDate,
		&task.IsDone,
		&task.EventDone,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepositoryImpl) GetTasks(ctx context.Context, userID string, isAdmin bool) ([]*models.Task, error) {
	const selectTasksQuery = selectTaskColumns + `
WHERE $1 OR t.owner_id = $2
ORDER BY t.start_date
`
	return r.queryTasks(ctx, selectTasksQuery, isAdmin, userID)
}

func (r *taskRepositoryImpl) GetTaskByID(ctx context.Context, id int64, userID string, isAdmin bool) (*models.Task, error) {
	const selectTaskByIDQuery = selectTaskColumns + `
WHERE t.id = $1 AND ($2 OR t.owner_id = $3)
`
	task, err := scanTask(r.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		id,
		isAdmin,
		userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Int64("task_id", id).
				Str("user_id", userID).
				Bool("is_admin", isAdmin).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}
	r.logger.Debug().
		Int64("task_id", task.ID).
		Msg("selected task by id")
	return task, nil
}

func (r *taskRepositoryImpl) GetTasksByEventID(ctx context.Context, eventID int64) ([]*models.Task, error) {
	const selectTasksByEventIDQuery = selectTaskColumns + `
WHERE t.event_id = $1
ORDER BY t.start_date
`
	return r.queryTasks(ctx, selectTasksByEventIDQuery, eventID)
}

func (r *taskRepositoryImpl) GetTasksByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	const selectTasksByOwnerQuery = selectTaskColumns + `
WHERE t.owner_id = $1
ORDER BY t.start_date
`
	return r.queryTasks(ctx, selectTasksByOwnerQuery, ownerID)
}

func (r *taskRepositoryImpl) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.pgPool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	r.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (r *taskRepositoryImpl) AddTask(ctx context.Context, task *models.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	const insertTaskQuery = `
INSERT INTO tasks (event_id,
                   owner_id,
                   title,
                   description,
                   start_date,
                   end_date,
                   is_done,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id,
          (SELECT user_name FROM users WHERE id = $2),
          (SELECT is_done FROM events WHERE id = $1)
`
	err := r.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.EventID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.StartDate,
		task.EndDate,
		task.IsDone,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(
		&task.ID,
		&task.OwnerName,
		&task.EventDone,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("event_id", task.EventID).
			Msg("failed to insert task")
		return err
	}

	r.logger.Info().
		Int64("task_id", task.ID).
		Int64("event_id", task.EventID).
		Str("owner_id", task.OwnerID).
		Msg("created task")
	return nil
}

func (r *taskRepositoryImpl) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET event_id = $1,
    title = $2,
    description = $3,
    start_date = $4,
    end_date = $5,
    is_done = $6,
    updated_at = $7
WHERE id = $8
RETURNING (SELECT is_done FROM events WHERE id = $1)
`
	err := r.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		task.EventID,
		task.Title,
		task.Description,
		task.StartDate,
		task.EndDate,
		task.IsDone,
		task.UpdatedAt,
		task.ID,
	).Scan(&task.EventDone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error().
				Int64("task_id", task.ID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		r.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return err
	}

	r.logger.Info().
		Int64("task_id", task.ID).
		Bool("is_done", task.IsDone).
		Msg("updated task")
	return nil
}

func (r *taskRepositoryImpl) DeleteTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := r.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		id,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Error().
			Int64("task_id", id).
			Msg("task not found")
		return ErrTaskNotFound
	}

	r.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}
