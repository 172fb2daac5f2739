package routerconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
)

// ErrNotSet is returned when a key has no row.
var ErrNotSet = errors.New("router config key not set")

// Repository handles router_config persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a router config repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetValue returns the value stored for key.
func (r *Repository) GetValue(ctx context.Context, key string) (string, error) {
	var v string
	err := r.pool.QueryRow(ctx, `SELECT value FROM router_config WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("get router config %s: %w", key, err)
	}
	return v, nil
}

// Get returns the full row for key, or nil if unset.
func (r *Repository) Get(ctx context.Context, key string) (*models.RouterConfig, error) {
	var rc models.RouterConfig
	err := r.pool.QueryRow(ctx, `SELECT key, value, updated_at FROM router_config WHERE key = $1`, key).
		Scan(&rc.Key, &rc.Value, &rc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// Set upserts key.
func (r *Repository) Set(ctx context.Context, key, value string) (*models.RouterConfig, error) {
	const q = `INSERT INTO router_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, updated_at`
	var rc models.RouterConfig
	if err := r.pool.QueryRow(ctx, q, key, value).Scan(&rc.Key, &rc.Value, &rc.UpdatedAt); err != nil {
		return nil, err
	}
	return &rc, nil
}
