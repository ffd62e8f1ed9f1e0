package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type userRoleRepositoryImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewUserRoleRepository(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) UserRoleRepository {
	return &userRoleRepositoryImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (r *userRoleRepositoryImpl) GetRoleIDByName(ctx context.Context, name string) (string, error) {
	const selectRoleIDQuery = `
SELECT id
FROM roles
WHERE name = $1
`
	var roleID string
	err := r.pgPool.QueryRow(
		ctx,
		selectRoleIDQuery,
		name,
	).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error().
				Str("role", name).
				Msg("role not found")
			return "", ErrRoleNotFound
		}

		r.logger.Error().
			Err(err).
			Str("role", name).
			Msg("failed to select role by name")
		return "", err
	}
	r.logger.Debug().
		Str("role", name).
		Str("role_id", roleID).
		Msg("selected role by name")
	return roleID, nil
}

func (r *userRoleRepositoryImpl) GetUserIDsInRole(ctx context.Context, roleID string) ([]string, error) {
	const selectUserIDsInRoleQuery = `
SELECT user_id
FROM user_roles
WHERE role_id = $1
`
	return r.queryUserIDs(ctx, selectUserIDsInRoleQuery, roleID)
}

func (r *userRoleRepositoryImpl) queryUserIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pgPool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select user ids")
		return nil, err
	}

	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to collect user ids")
		return nil, err
	}
	r.logger.Debug().
		Int("count", len(userIDs)).
		Msg("selected user ids")
	return userIDs, nil
}

func (r *userRoleRepositoryImpl) IsUserInRole(ctx context.Context, userID, roleID string) (bool, error) {
	const selectUserInRoleQuery = `
SELECT EXISTS (SELECT 1
               FROM user_roles
               WHERE user_id = $1 AND role_id = $2)
`
	var exists bool
	err := r.pgPool.QueryRow(
		ctx,
		selectUserInRoleQuery,
		userID,
		roleID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to check user role")
		return false, err
	}
	return exists, nil
}

func (r *userRoleRepositoryImpl) AddUserToRole(ctx context.Context, userID, roleID string) error {
	const insertUserRoleQuery = `
INSERT INTO user_roles (user_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`
	_, err := r.pgPool.Exec(
		ctx,
		insertUserRoleQuery,
		userID,
		roleID,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("role_id", roleID).
			Msg("failed to add user to role")
		return err
	}

	r.logger.Info().
		Str("user_id", userID).
		Str("role_id", roleID).
		Msg("added user to role")
	return nil
}
