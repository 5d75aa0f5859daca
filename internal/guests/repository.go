package guests

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertcall/backend/internal/models"
)

// Repository handles guest persistence. Guests are unauthenticated booking
// parties identified by an opaque access hash.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a guest repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByAccessHash returns the guest owning the hash, or nil when unknown.
func (r *Repository) GetByAccessHash(ctx context.Context, hash string) (*models.Guest, error) {
	const q = `SELECT id, access_hash, email, full_name, created_at FROM guests WHERE access_hash = $1`
	var g models.Guest
	err := r.pool.QueryRow(ctx, q, hash).Scan(&g.ID, &g.AccessHash, &g.Email, &g.FullName, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByID returns a guest by id, or nil when unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	const q = `SELECT id, access_hash, email, full_name, created_at FROM guests WHERE id = $1`
	var g models.Guest
	err := r.pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.AccessHash, &g.Email, &g.FullName, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new guest with a fresh access hash.
func (r *Repository) Create(ctx context.Context, g *models.Guest) error {
	const q = `INSERT INTO guests (id, access_hash, email, full_name)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, g.AccessHash, g.Email, g.FullName).Scan(&g.ID, &g.CreatedAt)
}
