package scrum

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-scrum/internal/notify"
)

// publisher applies one recipient rule to every entity change: admins get
// the admin payload, the owner gets the user payload unless they are an
// admin themselves. Nobody else hears about another user's entities.
type publisher struct {
	logger   zerolog.Logger
	notifier notify.Notifier
	roles    RoleDirectory
}

func (p *publisher) adminIDs(ctx context.Context) []string {
	ids, err := p.roles.AdminIDs(ctx)
	if err != nil {
		p.logger.Error().
			Err(err).
			Msg("failed to resolve admin recipients")
		return nil
	}
	return ids
}

func (p *publisher) publish(ctx context.Context, ownerID, name string, adminPayload, userPayload any) {
	admins := p.adminIDs(ctx)
	p.notifier.Users(admins, name, adminPayload)
	if !isAdminID(admins, ownerID) {
		p.notifier.User(ownerID, name, userPayload)
	}
}

func (p *publisher) toAdmins(ctx context.Context, name string, payload any) {
	p.notifier.Users(p.adminIDs(ctx), name, payload)
}
