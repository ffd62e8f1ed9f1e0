package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
)

type userServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewUserService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) UserService {
	return &userServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectUserColumns = `
SELECT id,
       email,
       user_name,
       password,
       failed_login_attempts,
       lockout_end,
       created_at,
       updated_at
FROM users
`

func scanUser(row pgx.Row) (*models.User, error) {
	user := new(models.User)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.UserName,
		&user.Password,
		&user.FailedLoginAttempts,
		&user.LockoutEnd,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, selectUserColumns+`WHERE id = $1`, userID)
}

func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, selectUserColumns+`WHERE email = $1`, email)
}

func (s *userServiceImpl) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(s.pgPool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("key", arg).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user")
	return user, nil
}

func (s *userServiceImpl) GetUsersNotInRole(ctx context.Context, roleID string) ([]*models.User, error) {
	const selectUsersNotInRoleQuery = `
SELECT u.id,
       u.email,
       u.user_name,
       u.created_at,
       u.updated_at,
       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN roles r ON r.id = ur.role_id
WHERE NOT EXISTS (SELECT 1
                  FROM user_roles x
                  WHERE x.user_id = u.id AND x.role_id = $1)
GROUP BY u.id
ORDER BY u.user_name
`
	rows, err := s.pgPool.Query(
		ctx,
		selectUsersNotInRoleQuery,
		roleID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users not in role")
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := new(models.User)
		err = rows.Scan(
			&user.ID,
			&user.Email,
			&user.UserName,
			&user.CreatedAt,
			&user.UpdatedAt,
			&user.Roles,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected users not in role")
	return users, nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cleanupQueries := []string{
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM password_reset_tokens WHERE user_id = $1`,
		`DELETE FROM user_roles WHERE user_id = $1`,
	}
	for _, query := range cleanupQueries {
		_, err = tx.Exec(ctx, query, userID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", userID).
				Msg("failed to delete user dependents")
			return err
		}
	}

	const deleteUserQuery = `
DELETE FROM users
WHERE id = $1
`
	tag, err := tx.Exec(
		ctx,
		deleteUserQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete user")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("user_id", userID).
			Msg("user not found")
		return ErrUserNotFound
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("deleted user")
	return nil
}

func (s *userServiceImpl) IssuePasswordResetToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := generateOpaqueToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate reset token")
		return "", err
	}

	tokenHash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash reset token")
		return "", err
	}

	now := time.Now()
	resetToken := models.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	const upsertResetTokenQuery = `
INSERT INTO password_reset_tokens (user_id,
                                   token_hash,
                                   expires_at,
                                   created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET token_hash = EXCLUDED.token_hash,
    expires_at = EXCLUDED.expires_at,
    created_at = EXCLUDED.created_at
`
	_, err = s.pgPool.Exec(
		ctx,
		upsertResetTokenQuery,
		resetToken.UserID,
		resetToken.TokenHash,
		resetToken.ExpiresAt,
		resetToken.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to store reset token")
		return "", err
	}

	s.logger.Info().
		Str("user_id", userID).
		Time("expires_at", resetToken.ExpiresAt).
		Msg("issued password reset token")
	return token, nil
}

func (s *userServiceImpl) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	const deleteExpiredResetTokensQuery = `
DELETE FROM password_reset_tokens
WHERE expires_at < $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteExpiredResetTokensQuery,
		time.Now(),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete expired reset tokens")
		return 0, err
	}

	s.logger.Debug().
		Int64("affected", tag.RowsAffected()).
		Msg("deleted expired reset tokens")
	return tag.RowsAffected(), nil
}

func generateOpaqueToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
