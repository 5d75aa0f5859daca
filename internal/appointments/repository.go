package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertcall/backend/internal/models"
)

// Repository handles appointment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an appointment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Filter selects appointments for listing. Status and StatusAtLeast are
// mutually exclusive: Status matches exactly, StatusAtLeast matches any status
// with a value >= the given one. Party scopes the result to appointments the
// caller is part of, on either side.
type Filter struct {
	ID            *uuid.UUID
	Status        *models.AppointmentStatus
	StatusAtLeast *models.AppointmentStatus
	StartFrom     *time.Time
	StartTo       *time.Time
	Party         *uuid.UUID
}

const appointmentColumns = `id, start_at, status, user_id_from, user_id_to, is_guest_owned, client_message, reason, created_at, updated_at`

// Create inserts a new appointment in Pending status.
func (r *Repository) Create(ctx context.Context, a *models.Appointment) error {
	const q = `INSERT INTO appointments (id, start_at, status, user_id_from, user_id_to, is_guest_owned, client_message)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, a.Start, models.StatusPending, a.UserIDFrom, a.UserIDTo, a.IsGuestOwned, a.ClientMessage).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID returns an appointment by id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var a models.Appointment
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.Start, &a.Status, &a.UserIDFrom, &a.UserIDTo, &a.IsGuestOwned, &a.ClientMessage, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns appointments matching the filter, newest start first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ID != nil {
		q += ` AND id = ` + arg(*f.ID)
	}
	if f.Status != nil {
		q += ` AND status = ` + arg(*f.Status)
	} else if f.StatusAtLeast != nil {
		q += ` AND status >= ` + arg(*f.StatusAtLeast)
	}
	if f.StartFrom != nil {
		q += ` AND start_at >= ` + arg(*f.StartFrom)
	}
	if f.StartTo != nil {
		q += ` AND start_at <= ` + arg(*f.StartTo)
	}
	if f.Party != nil {
		p := arg(*f.Party)
		q += ` AND (user_id_from = ` + p + ` OR user_id_to = ` + p + `)`
	}
	q += ` ORDER BY start_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.Start, &a.Status, &a.UserIDFrom, &a.UserIDTo, &a.IsGuestOwned, &a.ClientMessage, &a.Reason, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateStatus sets the status (and optional reason) of an appointment.
// Start is immutable; only status and its metadata ever change here.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus, reason string) error {
	const q = `UPDATE appointments SET status = $1, reason = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, status, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasConflict reports whether the expert already has a pending or confirmed
// appointment at exactly the given start.
func (r *Repository) HasConflict(ctx context.Context, expertID uuid.UUID, start time.Time) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM appointments
		WHERE user_id_to = $1 AND start_at = $2 AND status IN ($3, $4))`
	var exists bool
	err := r.pool.QueryRow(ctx, q, expertID, start, models.StatusPending, models.StatusConfirmed).Scan(&exists)
	return exists, err
}
