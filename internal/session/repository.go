package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertcall/backend/internal/models"
)

// Repository is the pgx-backed credential cache store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a call session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the cached credential for the appointment, or nil when absent.
func (r *Repository) Get(ctx context.Context, appointmentID uuid.UUID) (*models.CallSession, error) {
	const q = `SELECT appointment_id, room, expert_token, client_token, issued_at
		FROM call_sessions WHERE appointment_id = $1`
	var s models.CallSession
	err := r.pool.QueryRow(ctx, q, appointmentID).Scan(&s.AppointmentID, &s.Room, &s.ExpertToken, &s.ClientToken, &s.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Replace upserts the credential row in one statement, so a reissue fully
// supersedes the prior entry and readers never see a mixed record.
func (r *Repository) Replace(ctx context.Context, s *models.CallSession) error {
	const q = `INSERT INTO call_sessions (appointment_id, room, expert_token, client_token, issued_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (appointment_id) DO UPDATE
		SET room = EXCLUDED.room, expert_token = EXCLUDED.expert_token,
		    client_token = EXCLUDED.client_token, issued_at = EXCLUDED.issued_at`
	_, err := r.pool.Exec(ctx, q, s.AppointmentID, s.Room, s.ExpertToken, s.ClientToken, s.IssuedAt)
	return err
}
