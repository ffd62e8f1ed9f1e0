package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateIdentityTables, downCreateIdentityTables)
}

func upCreateIdentityTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE users(
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			user_name TEXT NOT NULL,
			password TEXT NOT NULL,
			failed_login_attempts INTEGER NOT NULL DEFAULT 0,
			lockout_end TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE roles(
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE user_roles(
			user_id UUID NOT NULL REFERENCES users(id),
			role_id UUID NOT NULL REFERENCES roles(id),
			PRIMARY KEY (user_id, role_id)
		);

		INSERT INTO roles (name) VALUES ('Admin'), ('User');
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateIdentityTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DROP TABLE user_roles;
		DROP TABLE roles;
		DROP TABLE users;
	`)
	if err != nil {
		return err
	}
	return nil
}
