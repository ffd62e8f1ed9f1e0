package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
)

type AuthConfig struct {
	JWTIssuer          string
	JWTSigningKey      []byte
	JWTAccessTokenTTL  time.Duration
	JWTRefreshTokenTTL time.Duration

	// DefaultRole is assigned to every registered user.
	DefaultRole string

	// MaxFailedAttempts consecutive failed logins lock the
	// account for LockoutDuration. Zero disables the lockout.
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

func (c AuthConfig) lockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: c.MaxFailedAttempts,
		Duration:          c.LockoutDuration,
	}
}

type authServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	cfg    AuthConfig
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	cfg AuthConfig,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		pgPool: pgPool,
		cfg:    cfg,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := models.User{
		Email: params.Email,
	}

	const selectUserByEmailQuery = `
SELECT id,
       user_name,
       password,
       failed_login_attempts,
       lockout_end
FROM users
WHERE email = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.UserName,
		&user.Password,
		&user.FailedLoginAttempts,
		&user.LockoutEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("selected user")

	now := time.Now()
	policy := s.cfg.lockoutPolicy()
	if policy.Locked(user.LockoutEnd, now) {
		s.logger.Error().
			Str("user_id", user.ID).
			Time("lockout_end", *user.LockoutEnd).
			Msg("user locked out")
		return nil, ErrUserLockedOut
	}

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, s.registerFailedLogin(ctx, &user, now)
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	attempts, lockoutEnd := policy.SucceededLogin()

	const resetFailedLoginsQuery = `
UPDATE users
SET failed_login_attempts = $1,
    lockout_end = $2,
    updated_at = $3
WHERE id = $4
`
	_, err = tx.Exec(
		ctx,
		resetFailedLoginsQuery,
		attempts,
		lockoutEnd,
		now,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to reset failed logins")
		return nil, err
	}

	const deleteSessionsByFingerprintQuery = `
DELETE FROM sessions
       WHERE user_id = $1 AND fingerprint = $2
`
	tag, err := tx.Exec(
		ctx,
		deleteSessionsByFingerprintQuery,
		user.ID,
		params.Fingerprint,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete sessions by fingerprint")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions with the same browser fingerprint")

	result, err := s.createSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	result.UserName = user.UserName
	s.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", result.SessionID).
		Msg("logged in")
	return result, nil
}

// registerFailedLogin bumps the failure counter and locks the account once
// the limit is reached. It returns the error the caller should report.
func (s *authServiceImpl) registerFailedLogin(ctx context.Context, user *models.User, now time.Time) error {
	attempts, lockoutEnd, result := s.cfg.lockoutPolicy().FailedLogin(user.FailedLoginAttempts, now)
	if s.cfg.MaxFailedAttempts <= 0 {
		return result
	}

	const updateFailedLoginsQuery = `
UPDATE users
SET failed_login_attempts = $1,
    lockout_end = $2,
    updated_at = $3
WHERE id = $4
`
	_, err := s.pgPool.Exec(
		ctx,
		updateFailedLoginsQuery,
		attempts,
		lockoutEnd,
		now,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update failed logins")
		return err
	}

	if lockoutEnd != nil {
		s.logger.Warn().
			Str("user_id", user.ID).
			Time("lockout_end", *lockoutEnd).
			Msg("user locked out after failed logins")
	}
	return result
}

func (s *authServiceImpl) Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error) {
	session := models.Session{
		RefreshToken: params.RefreshToken,
		Fingerprint:  params.Fingerprint,
	}

	const selectSessionByRefreshTokenQuery = `
SELECT id,
       user_id,
       expires_at
FROM sessions
WHERE refresh_token = $1 AND
      fingerprint = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSessionByRefreshTokenQuery,
		session.RefreshToken,
		session.Fingerprint,
	).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select session by refresh token")
		return nil, err
	}

	if session.Expired(time.Now()) {
		s.logger.Error().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}

	refreshToken, err := generateOpaqueToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}
	session.RefreshToken = refreshToken

	now := time.Now()
	session.ExpiresAt = now.Add(s.cfg.JWTRefreshTokenTTL)
	session.UpdatedAt = now

	const updateSessionQuery = `
UPDATE sessions
SET refresh_token = $1,
    expires_at = $2,
    updated_at = $3
WHERE id = $4
`
	_, err = s.pgPool.Exec(
		ctx,
		updateSessionQuery,
		session.RefreshToken,
		session.ExpiresAt,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("updated session")

	accessToken, accessTokenExpiresAt, err := s.generateAccessToken(session.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}
	s.logger.Info().
		Str("user_id", session.UserID).
		Str("session_id", session.ID).
		Msg("refreshed session")

	return &LoginResult{
		UserID:                session.UserID,
		SessionID:             session.ID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Register(ctx context.Context, params LoginParams) (*LoginResult, error) {
	err := CheckPasswordPolicy(params.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("password rejected by policy")
		return nil, err
	}

	now := time.Now()
	user := models.User{
		Email:     params.Email,
		UserName:  params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   user_name,
                   password,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = tx.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.UserName,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				s.logger.Error().
					Str("email", user.Email).
					Msg("user with this email already exists")
				return nil, ErrUserAlreadyExists
			}
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("inserted user")

	const insertDefaultRoleQuery = `
INSERT INTO user_roles (user_id, role_id)
SELECT $1, id
FROM roles
WHERE name = $2
`
	tag, err := tx.Exec(
		ctx,
		insertDefaultRoleQuery,
		user.ID,
		s.cfg.DefaultRole,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to assign default role")
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("role", s.cfg.DefaultRole).
			Msg("default role not found")
		return nil, ErrRoleNotFound
	}

	result, err := s.createSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	result.UserName = user.UserName
	s.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", result.SessionID).
		Msg("registered user")
	return result, nil
}

func (s *authServiceImpl) createSession(ctx context.Context, tx pgx.Tx, userID, fingerprint string) (*LoginResult, error) {
	now := time.Now()
	session := models.Session{
		UserID:      userID,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.cfg.JWTRefreshTokenTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}
	session.ID = sessionUUID.String()

	refreshToken, err := generateOpaqueToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}
	session.RefreshToken = refreshToken

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      fingerprint,
                      refresh_token,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = tx.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.Fingerprint,
		session.RefreshToken,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")

	accessToken, accessTokenExpiresAt, err := s.generateAccessToken(session.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	return &LoginResult{
		UserID:                userID,
		SessionID:             session.ID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, userID string) error {
	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteSessionsByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete sessions by user id")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions by user id")

	s.logger.Info().
		Str("user_id", userID).
		Msg("logged out")
	return nil
}

func (s *authServiceImpl) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	err := CheckPasswordPolicy(params.NewPassword)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("password rejected by policy")
		return err
	}

	resetToken := models.PasswordResetToken{
		UserID: params.UserID,
	}

	const selectResetTokenQuery = `
SELECT token_hash,
       expires_at
FROM password_reset_tokens
WHERE user_id = $1
`
	err = s.pgPool.QueryRow(
		ctx,
		selectResetTokenQuery,
		resetToken.UserID,
	).Scan(
		&resetToken.TokenHash,
		&resetToken.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", params.UserID).
				Msg("reset token not found")
			return ErrResetTokenInvalid
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select reset token")
		return err
	}

	now := time.Now()
	if resetToken.Expired(now) {
		s.logger.Error().
			Str("user_id", params.UserID).
			Time("expires_at", resetToken.ExpiresAt).
			Msg("reset token expired")
		return ErrResetTokenInvalid
	}

	match, err := argon2id.ComparePasswordAndHash(params.Token, resetToken.TokenHash)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare reset token")
		return err
	} else if !match {
		s.logger.Error().
			Str("user_id", params.UserID).
			Msg("reset token mismatch")
		return ErrResetTokenInvalid
	}

	passwordHash, err := argon2id.CreateHash(params.NewPassword, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updatePasswordQuery = `
UPDATE users
SET password = $1,
    failed_login_attempts = 0,
    lockout_end = NULL,
    updated_at = $2
WHERE id = $3
`
	tag, err := tx.Exec(
		ctx,
		updatePasswordQuery,
		passwordHash,
		now,
		params.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update password")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("user_id", params.UserID).
			Msg("user not found")
		return ErrUserNotFound
	}

	for _, query := range []string{
		`DELETE FROM password_reset_tokens WHERE user_id = $1`,
		`DELETE FROM sessions WHERE user_id = $1`,
	} {
		_, err = tx.Exec(ctx, query, params.UserID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to clean up after password reset")
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	s.logger.Info().
		Str("user_id", params.UserID).
		Msg("reset password")
	return nil
}

func (s *authServiceImpl) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.cfg.JWTSigningKey, nil
		},
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}

func (s *authServiceImpl) generateAccessToken(sessionID string) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.JWTAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.cfg.JWTIssuer,
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.cfg.JWTSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
