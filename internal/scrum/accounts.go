package scrum

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Fingerprint     string
}

type ResetPasswordInput struct {
	UserID          string
	Token           string
	Password        string
	ConfirmPassword string
}

// Accounts wraps registration and password resets with form validation
// and tells admins about new users.
type Accounts struct {
	logger zerolog.Logger
	auth   services.AuthService
	pub    *publisher
}

func NewAccounts(
	logger zerolog.Logger,
	auth services.AuthService,
	notifier notify.Notifier,
	roles RoleDirectory,
) *Accounts {
	return &Accounts{
		logger: logger,
		auth:   auth,
		pub:    &publisher{logger: logger, notifier: notifier, roles: roles},
	}
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*services.LoginResult, error) {
	errs := fieldErrors{}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		errs.add("email", "Email is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.add("email", "Email is not a valid address.")
	}
	checkPasswords(errs, in.Password, in.ConfirmPassword)
	if err := errs.err(); err != nil {
		return nil, err
	}

	result, err := a.auth.Register(ctx, services.LoginParams{
		Email:       email,
		Password:    in.Password,
		Fingerprint: in.Fingerprint,
	})
	if err != nil {
		return nil, a.mapIdentityError(err)
	}

	a.pub.toAdmins(ctx, notify.UserRegistered, UserRegisteredPayload{
		UserName: result.UserName,
		UserID:   result.UserID,
	})
	return result, nil
}

func (a *Accounts) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.UserID == "" || in.Token == "" {
		return services.ErrResetTokenInvalid
	}

	errs := fieldErrors{}
	checkPasswords(errs, in.Password, in.ConfirmPassword)
	if err := errs.err(); err != nil {
		return err
	}

	err := a.auth.ResetPassword(ctx, services.ResetPasswordParams{
		UserID:      in.UserID,
		Token:       in.Token,
		NewPassword: in.Password,
	})
	if err != nil {
		return a.mapIdentityError(err)
	}
	return nil
}

func checkPasswords(errs fieldErrors, password, confirm string) {
	if password == "" {
		errs.add("password", "Password is required.")
		return
	}
	if password != confirm {
		errs.add("confirmPassword", "Passwords do not match.")
	}
}

// mapIdentityError turns identity failures the user can fix into field
// errors and passes everything else through.
func (a *Accounts) mapIdentityError(err error) error {
	var policyErr *services.PasswordPolicyError
	switch {
	case errors.As(err, &policyErr):
		return &ValidationError{Fields: map[string]string{
			"password": strings.Join(policyErr.Violations, "; "),
		}}
	case errors.Is(err, services.ErrUserAlreadyExists):
		return &ValidationError{Fields: map[string]string{
			"email": "This email is already taken.",
		}}
	}
	return err
}
