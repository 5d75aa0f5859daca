package emails

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertcall/backend/internal/models"
)

// Repository persists the email audit log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Log records a sent or failed notification mail.
func (r *Repository) Log(ctx context.Context, l *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, appointment_id, recipient, email_type, status, error)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, l.AppointmentID, l.Recipient, l.EmailType, l.Status, l.Error).
		Scan(&l.ID, &l.CreatedAt)
}

// ListByAppointment returns the mail history of one appointment, newest first.
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, appointment_id, recipient, email_type, status, error, created_at
		FROM email_logs WHERE appointment_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.AppointmentID, &l.Recipient, &l.EmailType, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
