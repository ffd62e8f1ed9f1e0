package app

import (
	"context"

	"github.com/adanyl0v/go-scrum/internal/migrations"
)

// MustMigrate runs a goose command such as "up", "down" or "status".
func MustMigrate(command string, args ...string) {
	err := migrations.Run(context.Background(), globalPostgresPool, command, args...)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("command", command).
			Msg("failed to run migrations")
		panic(err)
	}
	globalLogger.Info().
		Str("command", command).
		Msg("ran migrations")
}
