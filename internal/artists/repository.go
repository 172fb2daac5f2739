package artists

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
)

const artistColumns = `id, handle, name, enabled, created_at, updated_at`

// Repository handles artist persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an artists repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanArtist(row pgx.Row) (*models.Artist, error) {
	var a models.Artist
	err := row.Scan(&a.ID, &a.Handle, &a.Name, &a.Enabled, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an enabled artist.
func (r *Repository) Create(ctx context.Context, handle, name string) (*models.Artist, error) {
	return CreateArtist(ctx, r.pool, handle, name)
}

// CreateArtist inserts an artist through db, which may be a pool or a transaction.
func CreateArtist(ctx context.Context, db database.DBTX, handle, name string) (*models.Artist, error) {
	const q = `INSERT INTO artists (handle, name) VALUES ($1, $2) RETURNING ` + artistColumns
	return scanArtist(db.QueryRow(ctx, q, handle, name))
}

// GetByID returns an artist by ID, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error) {
	return scanArtist(r.pool.QueryRow(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = $1`, id))
}

// GetByHandle returns an artist by handle regardless of enabled state, or nil.
func (r *Repository) GetByHandle(ctx context.Context, handle string) (*models.Artist, error) {
	return scanArtist(r.pool.QueryRow(ctx, `SELECT `+artistColumns+` FROM artists WHERE handle = $1`, handle))
}

// GetEnabledByHandle returns the enabled artist with handle, or nil.
func (r *Repository) GetEnabledByHandle(ctx context.Context, handle string) (*models.Artist, error) {
	return scanArtist(r.pool.QueryRow(ctx, `SELECT `+artistColumns+` FROM artists WHERE handle = $1 AND enabled`, handle))
}

// List returns all artists ordered by name.
func (r *Repository) List(ctx context.Context) ([]*models.Artist, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+artistColumns+` FROM artists ORDER BY name, handle`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateParams holds the mutable artist fields. Nil fields are left unchanged.
type UpdateParams struct {
	Handle  *string
	Name    *string
	Enabled *bool
}

// Update applies p and returns the updated artist, or nil if id does not exist.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Artist, error) {
	const q = `UPDATE artists SET
		handle = COALESCE($2, handle),
		name = COALESCE($3, name),
		enabled = COALESCE($4, enabled),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + artistColumns
	return scanArtist(r.pool.QueryRow(ctx, q, id, p.Handle, p.Name, p.Enabled))
}
