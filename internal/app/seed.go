package app

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-scrum/internal/config"
	"github.com/adanyl0v/go-scrum/internal/services"
)

// seedFingerprint marks the session opened while registering the admin.
// It never matches a browser and is removed right away.
const seedFingerprint = "seed"

// MustSeedAdmin makes sure the configured admin account exists and holds
// the admin role. An existing account keeps its password.
func MustSeedAdmin() {
	cfg := config.Global()
	ctx := context.Background()

	if cfg.Admin.Password == "" {
		globalLogger.Warn().Msg("admin password not set, skipping seed")
		return
	}

	user, err := globalUserService.GetUserByEmail(ctx, cfg.Admin.Email)
	userID := ""
	switch {
	case err == nil:
		userID = user.ID
	case errors.Is(err, services.ErrUserNotFound):
		result, err := globalAuthService.Register(ctx, services.LoginParams{
			Email:       cfg.Admin.Email,
			Password:    cfg.Admin.Password,
			Fingerprint: seedFingerprint,
		})
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("email", cfg.Admin.Email).
				Msg("failed to register admin")
			panic(err)
		}
		userID = result.UserID

		_, err = globalSessionService.DeleteSessionsByUserID(ctx, userID)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to drop seed session")
			panic(err)
		}
	default:
		globalLogger.Error().
			Err(err).
			Str("email", cfg.Admin.Email).
			Msg("failed to look up admin")
		panic(err)
	}

	err = globalUserRoles.AddUserToRole(ctx, userID, globalRoles.AdminRoleID())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to grant admin role")
		panic(err)
	}
	globalLogger.Info().
		Str("user_id", userID).
		Str("email", cfg.Admin.Email).
		Msg("seeded admin")
}
