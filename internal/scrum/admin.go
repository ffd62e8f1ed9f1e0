package scrum

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/models"
	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type AdminConfig struct {
	// PublicURL prefixes the reset links handed to admins.
	PublicURL     string
	ResetTokenTTL time.Duration
}

type AdminService struct {
	logger   zerolog.Logger
	users    services.UserService
	sessions services.SessionService
	events   services.EventRepository
	tasks    services.TaskRepository
	roles    RoleDirectory
	pub      *publisher
	cfg      AdminConfig
}

func NewAdminService(
	logger zerolog.Logger,
	users services.UserService,
	sessions services.SessionService,
	events services.EventRepository,
	tasks services.TaskRepository,
	notifier notify.Notifier,
	roles RoleDirectory,
	cfg AdminConfig,
) *AdminService {
	return &AdminService{
		logger:   logger,
		users:    users,
		sessions: sessions,
		events:   events,
		tasks:    tasks,
		roles:    roles,
		pub:      &publisher{logger: logger, notifier: notifier, roles: roles},
		cfg:      cfg,
	}
}

// ListUsers returns every user that is not an admin.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.GetUsersNotInRole(ctx, s.roles.AdminRoleID())
}

// ForcePasswordReset issues a reset token for the user, signs them out
// everywhere and returns the reset link. Only the caller ever sees the
// link; the user is told over the hub that a reset is pending.
func (s *AdminService) ForcePasswordReset(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	isAdmin, err := s.roles.IsAdmin(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if isAdmin {
		return "", ErrAdminTarget
	}

	token, err := s.users.IssuePasswordResetToken(ctx, user.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return "", err
	}

	_, err = s.sessions.DeleteSessionsByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}

	s.pub.notifier.User(user.ID, notify.ForcePasswordReset, ForcePasswordResetPayload{
		Message: "An administrator reset your password. Ask them for the reset link.",
	})

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("forced password reset")
	return s.resetURL(user.ID, token), nil
}

func (s *AdminService) resetURL(userID, token string) string {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("token", token)
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/ResetPassword?" + q.Encode()
}

// DeleteUser removes the user's tasks, then their events, then the account
// itself. Admin accounts cannot be deleted this way.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	isAdmin, err := s.roles.IsAdmin(ctx, user.ID)
	if err != nil {
		return err
	}
	if isAdmin {
		return ErrAdminTarget
	}

	tasks, err := s.tasks.GetTasksByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		err = s.tasks.DeleteTask(ctx, task.ID)
		if err != nil && !errors.Is(err, services.ErrTaskNotFound) {
			return err
		}
		s.pub.toAdmins(ctx, notify.TaskDeleted, TaskDeletedPayload{ID: task.ID})
	}

	events, err := s.events.GetEventsByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, event := range events {
		err = s.deleteEvent(ctx, event)
		if err != nil {
			return err
		}
	}

	err = s.users.DeleteUser(ctx, user.ID)
	if err != nil {
		return err
	}

	s.pub.notifier.User(user.ID, notify.ForceLogoutWithToast, nil)
	s.logger.Info().
		Str("user_id", user.ID).
		Int("tasks", len(tasks)).
		Int("events", len(events)).
		Msg("force deleted user")
	return nil
}

// deleteEvent also removes tasks other users added to the event. Their
// owners are told which tasks went away.
func (s *AdminService) deleteEvent(ctx context.Context, event *models.Event) error {
	related, err := s.tasks.GetTasksByEventID(ctx, event.ID)
	if err != nil {
		return err
	}

	err = s.events.DeleteEvent(ctx, event.ID)
	if err != nil && !errors.Is(err, services.ErrEventNotFound) {
		return err
	}

	ids := make([]int64, 0, len(related))
	for _, task := range related {
		ids = append(ids, task.ID)
		payload := TaskDeletedPayload{ID: task.ID}
		s.pub.publish(ctx, task.OwnerID, notify.TaskDeleted, payload, payload)
	}
	s.pub.toAdmins(ctx, notify.EventDeleted, EventDeletedPayload{ID: event.ID, RelatedTaskIDs: ids})
	return nil
}
