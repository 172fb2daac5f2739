package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
)

const userColumns = `id, email, password_hash, role, artist_id, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Password, &role, &u.ArtistID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// GetByID returns a user by ID, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email (case-insensitive), or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash string, role models.Role, artistID *uuid.UUID) (*models.User, error) {
	return CreateUser(ctx, r.pool, email, passwordHash, role, artistID)
}

// CreateUser inserts a user through db, which may be a pool or a transaction.
func CreateUser(ctx context.Context, db database.DBTX, email, passwordHash string, role models.Role, artistID *uuid.UUID) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, role, artist_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	return scanUser(db.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), passwordHash, string(role), artistID))
}
