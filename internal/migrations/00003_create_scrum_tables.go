package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateScrumTables, downCreateScrumTables)
}

// No ON DELETE CASCADE: the repositories remove tasks before their event.
func upCreateScrumTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE events(
			id BIGSERIAL PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			is_done BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (end_date > start_date)
		);
		CREATE INDEX events_owner_id_idx ON events(owner_id);

		CREATE TABLE tasks(
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES events(id),
			owner_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			is_done BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (end_date > start_date)
		);
		CREATE INDEX tasks_event_id_idx ON tasks(event_id);
		CREATE INDEX tasks_owner_id_idx ON tasks(owner_id);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateScrumTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DROP TABLE tasks;
		DROP TABLE events;
	`)
	if err != nil {
		return err
	}
	return nil
}
