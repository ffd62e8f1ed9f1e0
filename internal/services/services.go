package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-scrum/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrUserLockedOut        = errors.New("user locked out")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrResetTokenInvalid    = errors.New("password reset token invalid")
	ErrRoleNotFound         = errors.New("role not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrTaskNotFound         = errors.New("task not found")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes the sessions of the user that share the given
	// fingerprint, creates a new session and generates a new JWT
	// token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist, ErrUserPasswordMismatch if the
	// given password doesn't match the user's password and
	// ErrUserLockedOut while the account is locked after too
	// many failed attempts.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID, assigns the
	// default role and creates a session with the given fingerprint
	// and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists and a *PasswordPolicyError
	// if the password is too weak.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ResetPassword redeems a password reset token. On success the
	// token and every session of the user are deleted.
	//
	// It returns ErrResetTokenInvalid if the token doesn't match or
	// is expired and a *PasswordPolicyError if the new password is
	// too weak.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type UserService interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersNotInRole lists every user that doesn't hold
	// the role, together with the names of their roles.
	GetUsersNotInRole(ctx context.Context, roleID string) ([]*models.User, error)

	// DeleteUser removes the account, its sessions, role memberships
	// and reset tokens. Events and tasks must be removed beforehand.
	DeleteUser(ctx context.Context, userID string) error

	// IssuePasswordResetToken replaces any previous token of the user
	// and returns the plain token. Only its hash is stored.
	IssuePasswordResetToken(ctx context.Context, userID string, ttl time.Duration) (string, error)
	DeleteExpiredResetTokens(ctx context.Context) (int64, error)
}

// EventRepository reads events scoped to the caller: admins see every
// event, other users only their own. Writes are not scoped.
type EventRepository interface {
	GetEvents(ctx context.Context, userID string, isAdmin bool) ([]*models.Event, error)
	// GetEventByID returns ErrEventNotFound both when the event doesn't
	// exist and when it isn't visible to the caller.
	GetEventByID(ctx context.Context, id int64, userID string, isAdmin bool) (*models.Event, error)
	GetEventsByOwner(ctx context.Context, ownerID string) ([]*models.Event, error)
	AddEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	// DeleteEvent removes the event and all of its tasks.
	DeleteEvent(ctx context.Context, id int64) error
}

// TaskRepository follows the same scoping rules as EventRepository.
type TaskRepository interface {
	GetTasks(ctx context.Context, userID string, isAdmin bool) ([]*models.Task, error)
	GetTaskByID(ctx context.Context, id int64, userID string, isAdmin bool) (*models.Task, error)
	GetTasksByEventID(ctx context.Context, eventID int64) ([]*models.Task, error)
	GetTasksByOwner(ctx context.Context, ownerID string) ([]*models.Task, error)
	AddTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

type UserRoleRepository interface {
	GetRoleIDByName(ctx context.Context, name string) (string, error)
	GetUserIDsInRole(ctx context.Context, roleID string) ([]string, error)
	IsUserInRole(ctx context.Context, userID, roleID string) (bool, error)
	AddUserToRole(ctx context.Context, userID, roleID string) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	UserName              string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type ResetPasswordParams struct {
	UserID      string
	Token       string
	NewPassword string
}
