package app

import (
	"context"
	"time"

	"github.com/adanyl0v/go-scrum/internal/config"
	"github.com/adanyl0v/go-scrum/internal/notify"
	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

var (
	globalLocation *time.Location
	globalHub      *notify.Hub

	globalAuthService    services.AuthService
	globalSessionService services.SessionService
	globalUserService    services.UserService
	globalUserRoles      services.UserRoleRepository
	globalRoles          *scrum.Roles

	globalAccounts     *scrum.Accounts
	globalEventService *scrum.EventService
	globalTaskService  *scrum.TaskService
	globalAdminService *scrum.AdminService
)

func MustLoadLocation() {
	name := config.Global().Timezone

	loc, err := time.LoadLocation(name)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("timezone", name).
			Msg("failed to load timezone")
		panic(err)
	}
	globalLocation = loc
	globalLogger.Info().
		Str("timezone", loc.String()).
		Msg("loaded timezone")
}

// MustInitIdentity builds the identity services and resolves the
// role ids once.
func MustInitIdentity() {
	cfg := config.Global()

	globalSessionService = services.NewSessionService(globalLogger, globalPostgresPool)
	globalUserService = services.NewUserService(globalLogger, globalPostgresPool)
	globalUserRoles = services.NewUserRoleRepository(globalLogger, globalPostgresPool)
	globalAuthService = services.NewAuthService(globalLogger, globalPostgresPool, services.AuthConfig{
		JWTIssuer:          cfg.JWT.Issuer,
		JWTSigningKey:      []byte(cfg.JWT.SigningKey),
		JWTAccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		JWTRefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		DefaultRole:        cfg.Roles.User,
		MaxFailedAttempts:  cfg.Lockout.MaxFailedAttempts,
		LockoutDuration:    cfg.Lockout.Duration,
	})

	roles, err := scrum.NewRoles(context.Background(), globalUserRoles, cfg.Roles.Admin)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("role", cfg.Roles.Admin).
			Msg("failed to resolve admin role")
		panic(err)
	}
	globalRoles = roles
	globalLogger.Info().
		Str("role_id", roles.AdminRoleID()).
		Msg("resolved admin role")
}

// MustInitScrum builds the workflows on top of the identity services
// and the notification hub.
func MustInitScrum() {
	cfg := config.Global()

	globalHub = notify.NewHub(globalLogger, notify.DefaultSendBuffer)

	events := services.NewEventRepository(globalLogger, globalPostgresPool)
	tasks := services.NewTaskRepository(globalLogger, globalPostgresPool)

	globalAccounts = scrum.NewAccounts(globalLogger, globalAuthService, globalHub, globalRoles)
	globalEventService = scrum.NewEventService(globalLogger, events, tasks, globalHub, globalRoles, globalLocation)
	globalTaskService = scrum.NewTaskService(globalLogger, events, tasks, globalHub, globalRoles, globalLocation)
	globalAdminService = scrum.NewAdminService(globalLogger, globalUserService, globalSessionService,
		events, tasks, globalHub, globalRoles, scrum.AdminConfig{
			PublicURL:     cfg.HTTP.PublicURL,
			ResetTokenTTL: cfg.Reset.TokenTTL,
		})

	globalLogger.Info().Msg("initialized scrum services")
}
