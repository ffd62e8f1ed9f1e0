package scrum

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/notify/mock_notify"
	"github.com/adanyl0v/go-scrum/internal/services"
)

func TestRegisterAnnouncesNewUserToAdmins(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	accounts := NewAccounts(zerolog.Nop(), &fakeAuth{}, notifier, fakeRoles{admins: []string{"admin", "root"}})

	notifier.EXPECT().Users([]string{"admin", "root"}, notify.UserRegistered, UserRegisteredPayload{
		UserName: "carol@scrum.local",
		UserID:   "new-user",
	})

	result, err := accounts.Register(context.Background(), RegisterInput{
		Email:           " carol@scrum.local ",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.UserID != "new-user" {
		t.Fatalf("user id = %q", result.UserID)
	}
}

func TestRegisterFieldErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    RegisterInput
		auth  *fakeAuth
		field string
	}{
		{
			name:  "missing email",
			in:    RegisterInput{Password: "Secret1!", ConfirmPassword: "Secret1!"},
			auth:  &fakeAuth{},
			field: "email",
		},
		{
			name:  "malformed email",
			in:    RegisterInput{Email: "not-an-email", Password: "Secret1!", ConfirmPassword: "Secret1!"},
			auth:  &fakeAuth{},
			field: "email",
		},
		{
			name:  "confirmation mismatch",
			in:    RegisterInput{Email: "carol@scrum.local", Password: "Secret1!", ConfirmPassword: "Secret2!"},
			auth:  &fakeAuth{},
			field: "confirmPassword",
		},
		{
			name: "weak password",
			in:   RegisterInput{Email: "carol@scrum.local", Password: "abc", ConfirmPassword: "abc"},
			auth: &fakeAuth{registerErr: &services.PasswordPolicyError{
				Violations: []string{"password is too short, minimum length is 6"},
			}},
			field: "password",
		},
		{
			name:  "duplicate email",
			in:    RegisterInput{Email: "carol@scrum.local", Password: "Secret1!", ConfirmPassword: "Secret1!"},
			auth:  &fakeAuth{registerErr: services.ErrUserAlreadyExists},
			field: "email",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			notifier := mock_notify.NewMockNotifier(ctrl)
			accounts := NewAccounts(zerolog.Nop(), tt.auth, notifier, fakeRoles{admins: []string{"admin"}})

			_, err := accounts.Register(context.Background(), tt.in)
			fields := fieldsOf(t, err)
			if _, ok := fields[tt.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &fakeAuth{}
	accounts := NewAccounts(zerolog.Nop(), auth, &recordingNotifier{}, fakeRoles{})

	err := accounts.ResetPassword(ctx, ResetPasswordInput{UserID: "bob", Password: "Secret1!", ConfirmPassword: "Secret1!"})
	if !errors.Is(err, services.ErrResetTokenInvalid) {
		t.Fatalf("missing token: got %v", err)
	}

	err = accounts.ResetPassword(ctx, ResetPasswordInput{UserID: "bob", Token: "t", Password: "Secret1!", ConfirmPassword: "nope"})
	fields := fieldsOf(t, err)
	if _, ok := fields["confirmPassword"]; !ok {
		t.Fatalf("expected confirmPassword error, got %v", fields)
	}
	if len(auth.reset) != 0 {
		t.Fatalf("identity must not be called on invalid input")
	}

	err = accounts.ResetPassword(ctx, ResetPasswordInput{UserID: "bob", Token: "t", Password: "Secret1!", ConfirmPassword: "Secret1!"})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(auth.reset) != 1 || auth.reset[0].NewPassword != "Secret1!" || auth.reset[0].Token != "t" {
		t.Fatalf("unexpected reset calls %+v", auth.reset)
	}

	auth.resetErr = services.ErrResetTokenInvalid
	err = accounts.ResetPassword(ctx, ResetPasswordInput{UserID: "bob", Token: "t", Password: "Secret1!", ConfirmPassword: "Secret1!"})
	if !errors.Is(err, services.ErrResetTokenInvalid) {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Fields: map[string]string{"title": "Title is required.", "endDate": "bad"}}
	want := "validation failed: endDate: bad; title: Title is required."
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
