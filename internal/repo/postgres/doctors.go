package postgres

import (
	"context"
	"errors"

	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DoctorsRepo struct {
	pool *pgxpool.Pool
}

func NewDoctorsRepo(pool *pgxpool.Pool) *DoctorsRepo {
	return &DoctorsRepo{pool: pool}
}

func (r *DoctorsRepo) List(ctx context.Context) ([]doctor.Doctor, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, specialization, created_at
		 FROM doctors
		 ORDER BY id ASC`,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	doctors := make([]doctor.Doctor, 0)

	for rows.Next() {
		var d doctor.Doctor

		err = rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.CreatedAt)

		if err != nil {
			return nil, err
		}

		doctors = append(doctors, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return doctors, nil
}

func (r *DoctorsRepo) GetByID(ctx context.Context, id int64) (doctor.Doctor, error) {
	var d doctor.Doctor

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, name, specialization, created_at FROM doctors WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.Specialization, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doctor.Doctor{}, doctor.ErrNotFound
		}

		return doctor.Doctor{}, err
	}

	return d, nil
}

func (r *DoctorsRepo) Count(ctx context.Context) (int, error) {
	var total int

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total)

	return total, err
}
