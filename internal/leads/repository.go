// Package leads is the read model over the lead table owned by the external
// CRM sync. The follow-up engine never writes lead identity; it only joins
// against it.
package leads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Lead is the identity slice the follow-up surfaces need.
type Lead struct {
	ID        uuid.UUID
	Name      string
	Company   *string
	Vertical  *string
	Phone     *string
	Email     *string
	CreatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	var l Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, company, vertical, phone, email, created_at
		FROM leads
		WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Company, &l.Vertical, &l.Phone, &l.Email, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return l, nil
}

// Exists is the cheap existence probe used before enrollment.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
