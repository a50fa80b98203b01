package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The unique index on (doctor_id, starts_at) is the atomic backstop for
// the pre-insert slot check: two racing bookings cannot both commit.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		specialization TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		doctor_id  BIGINT NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		starts_at  TIMESTAMP NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT appointments_doctor_slot_uniq UNIQUE (doctor_id, starts_at)
	)`,
	`CREATE INDEX IF NOT EXISTS appointments_user_idx ON appointments (user_id, starts_at)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
