package db

import (
	"context"
	"errors"

	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the configured admin account if it does not
// exist yet. A blank email or password disables seeding.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (name, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, TRUE)`,
		cfg.AdminName, cfg.AdminEmail, hash,
	)

	return err
}

// EnsureDoctors seeds a starter roster so a fresh install has someone
// to book. Doctors are read-only afterwards; an occupied table is left
// untouched.
func EnsureDoctors(ctx context.Context, pool *pgxpool.Pool) error {
	var count int

	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	seed := []struct {
		name           string
		specialization string
	}{
		{"Dr. Suman Shrestha", "Cardiologist"},
		{"Dr. Anita Rai", "Dermatologist"},
		{"Dr. Prakash Thapa", "General Physician"},
	}

	for _, d := range seed {
		_, err := pool.Exec(ctx,
			`INSERT INTO doctors (name, specialization) VALUES ($1, $2)`,
			d.name, d.specialization,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
