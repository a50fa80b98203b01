package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/clinicbook/api/internal/domain/appointment"
	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/clinicbook/api/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAppointmentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AppointmentsRepo {
	return &AppointmentsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *AppointmentsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// CreateTx books a slot inside a transaction: friendly existence check
// first, then insert. The unique constraint on (doctor_id, starts_at)
// catches the race the check alone cannot.
func (repo *AppointmentsRepo) CreateTx(ctx context.Context, tx pgx.Tx, userID, doctorID int64, startsAt time.Time) (appt appointment.Appointment, err error) {
	var taken bool

	err = repo.observe("appointments.create_tx.slot_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND starts_at = $2
		)`, doctorID, startsAt).Scan(&taken)
	})

	if err != nil {
		return
	}

	if taken {
		err = appointment.ErrSlotTaken
		return
	}

	err = repo.observe("appointments.create_tx.insert", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO appointments (user_id, doctor_id, starts_at)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, doctor_id, starts_at, created_at, updated_at
		`, userID, doctorID, startsAt).Scan(
			&appt.ID, &appt.UserID, &appt.DoctorID, &appt.StartsAt, &appt.CreatedAt, &appt.UpdatedAt,
		)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "appointments_doctor_slot_uniq":
			err = appointment.ErrSlotTaken
		case isForeignKeyViolation(err):
			err = doctor.ErrNotFound
		}
		appt = appointment.Appointment{}
		return
	}

	return
}

func (repo *AppointmentsRepo) Create(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appt appointment.Appointment, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	appt, err = repo.CreateTx(ctx, tx, userID, doctorID, startsAt)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (repo *AppointmentsRepo) GetByID(ctx context.Context, id int64) (appointment.Appointment, error) {
	var a appointment.Appointment

	err := repo.observe("appointments.get_by_id", func() error {
		return repo.pool.QueryRow(ctx, `
			SELECT id, user_id, doctor_id, starts_at, created_at, updated_at
			FROM appointments
			WHERE id = $1
		`, id).Scan(&a.ID, &a.UserID, &a.DoctorID, &a.StartsAt, &a.CreatedAt, &a.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return appointment.Appointment{}, appointment.ErrNotFound
		}

		return appointment.Appointment{}, err
	}

	return a, nil
}

// UpdateSlot overwrites the appointment's date and time. Ownership is
// checked by the caller; the slot constraint still rejects collisions.
func (repo *AppointmentsRepo) UpdateSlot(ctx context.Context, id int64, startsAt time.Time) (appointment.Appointment, error) {
	var a appointment.Appointment

	err := repo.observe("appointments.update_slot", func() error {
		return repo.pool.QueryRow(ctx, `
			UPDATE appointments
			SET starts_at = $2,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING id, user_id, doctor_id, starts_at, created_at, updated_at
		`, id, startsAt).Scan(&a.ID, &a.UserID, &a.DoctorID, &a.StartsAt, &a.CreatedAt, &a.UpdatedAt)
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return appointment.Appointment{}, appointment.ErrNotFound
		case IsUniqueViolation(err):
			return appointment.Appointment{}, appointment.ErrSlotTaken
		}

		return appointment.Appointment{}, err
	}

	return a, nil
}

func (repo *AppointmentsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := repo.observe("appointments.delete", func() error {
		var execErr error
		tag, execErr = repo.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		return execErr
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return appointment.ErrNotFound
	}

	return nil
}

// ListByUser returns the caller's appointments with the doctor joined
// in, soonest slot first.
func (repo *AppointmentsRepo) ListByUser(ctx context.Context, userID int64) ([]appointment.View, error) {
	var rows pgx.Rows
	var err error

	err = repo.observe("appointments.list_by_user", func() error {
		rows, err = repo.pool.Query(ctx, `
			SELECT a.id, a.starts_at, d.id, d.name, d.specialization
			FROM appointments a
			JOIN doctors d ON d.id = a.doctor_id
			WHERE a.user_id = $1
			ORDER BY a.starts_at ASC, a.id ASC
		`, userID)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanViews(rows, false)
}

// ListAll is the admin listing: every appointment with both patient and
// doctor names, sorted ascending by slot.
func (repo *AppointmentsRepo) ListAll(ctx context.Context) ([]appointment.View, error) {
	return repo.listJoined(ctx, "appointments.list_all", 0)
}

// ListSoonest returns the first N appointments by slot order, for the
// dashboard. No filter against the current time: "soonest" means the
// smallest slot values on record.
func (repo *AppointmentsRepo) ListSoonest(ctx context.Context, limit int) ([]appointment.View, error) {
	return repo.listJoined(ctx, "appointments.list_soonest", limit)
}

func (repo *AppointmentsRepo) listJoined(ctx context.Context, op string, limit int) ([]appointment.View, error) {
	query := `
		SELECT a.id, a.starts_at, d.id, d.name, d.specialization, u.id, u.name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN users u ON u.id = a.user_id
		ORDER BY a.starts_at ASC, a.id ASC`

	args := []any{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows pgx.Rows
	var err error

	err = repo.observe(op, func() error {
		rows, err = repo.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanViews(rows, true)
}

func (repo *AppointmentsRepo) Count(ctx context.Context) (int, error) {
	var total int

	err := repo.observe("appointments.count", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total)
	})

	return total, err
}

func scanViews(rows pgx.Rows, withPatient bool) ([]appointment.View, error) {
	views := make([]appointment.View, 0)

	for rows.Next() {
		var v appointment.View
		var startsAt time.Time
		var err error

		if withPatient {
			err = rows.Scan(&v.ID, &startsAt, &v.DoctorID, &v.DoctorName, &v.Specialization, &v.PatientID, &v.PatientName)
		} else {
			err = rows.Scan(&v.ID, &startsAt, &v.DoctorID, &v.DoctorName, &v.Specialization)
		}

		if err != nil {
			return nil, err
		}

		v.Date = appointment.FormatDate(startsAt)
		v.Time = appointment.FormatTime(startsAt)

		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}
