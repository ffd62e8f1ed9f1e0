package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adanyl0v/go-scrum/internal/config"
)

const janitorTimeout = time.Minute

var globalJanitor *cron.Cron

// MustStartJanitor schedules the removal of expired sessions and
// password reset tokens.
func MustStartJanitor() {
	schedule := config.Global().Janitor.Schedule

	globalJanitor = cron.New(cron.WithLocation(globalLocation))
	_, err := globalJanitor.AddFunc(schedule, sweepExpired)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("schedule", schedule).
			Msg("failed to schedule janitor")
		panic(err)
	}

	globalJanitor.Start()
	globalLogger.Info().
		Str("schedule", schedule).
		Msg("started janitor")
}

func StopJanitor() {
	if globalJanitor == nil {
		return
	}
	<-globalJanitor.Stop().Done()
	globalLogger.Info().Msg("stopped janitor")
}

func sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), janitorTimeout)
	defer cancel()

	sessions, err := globalSessionService.DeleteExpiredSessions(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to delete expired sessions")
	}

	tokens, err := globalUserService.DeleteExpiredResetTokens(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to delete expired reset tokens")
	}

	globalLogger.Info().
		Int64("sessions", sessions).
		Int64("reset_tokens", tokens).
		Msg("swept expired records")
}
