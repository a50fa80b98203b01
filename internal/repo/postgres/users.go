package postgres

import (
	"context"
	"errors"

	"github.com/clinicbook/api/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

// Create inserts a patient account. The admin flag is never set here;
// admins come from startup seeding only.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (name, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, FALSE)
		 RETURNING id, name, email, password_hash, is_admin, created_at, updated_at`,
		name, email, passwordHash,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, email, password_hash, is_admin, created_at, updated_at
		 FROM users
		 WHERE email = $1`,
		email,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// ListPatients returns every non-admin account, for the admin listing.
func (r *UsersRepo) ListPatients(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, email, password_hash, is_admin, created_at, updated_at
		 FROM users
		 WHERE is_admin = FALSE
		 ORDER BY id ASC`,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	patients := make([]user.User, 0)

	for rows.Next() {
		var u user.User

		err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)

		if err != nil {
			return nil, err
		}

		patients = append(patients, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return patients, nil
}

func (r *UsersRepo) CountPatients(ctx context.Context) (int, error) {
	var total int

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = FALSE`).Scan(&total)

	return total, err
}
