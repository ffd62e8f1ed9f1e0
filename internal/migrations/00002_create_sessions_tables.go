package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSessionsTables, downCreateSessionsTables)
}

func upCreateSessionsTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE sessions(
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			fingerprint TEXT NOT NULL,
			refresh_token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX sessions_user_id_idx ON sessions(user_id);

		CREATE TABLE password_reset_tokens(
			user_id UUID PRIMARY KEY REFERENCES users(id),
			token_hash TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateSessionsTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DROP TABLE password_reset_tokens;
		DROP TABLE sessions;
	`)
	if err != nil {
		return err
	}
	return nil
}
