package invites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/artists"
	"github.com/musicdeclares/amplify/internal/auth"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
)

var (
	// ErrNotFound is returned when no invite has the given token.
	ErrNotFound = errors.New("invite not found")
	// ErrUnusable is returned for an invite that was already accepted or has expired.
	ErrUnusable = errors.New("invite already accepted or expired")
)

const inviteColumns = `id, email, artist_name, token, created_by, expires_at, accepted_at, created_at`

// Repository handles invite persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invites repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var i models.Invite
	err := row.Scan(&i.ID, &i.Email, &i.ArtistName, &i.Token, &i.CreatedBy, &i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts an invite and fills its generated fields.
func (r *Repository) Create(ctx context.Context, inv *models.Invite) error {
	const q = `INSERT INTO invites (email, artist_name, token, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, inv.Email, inv.ArtistName, inv.Token, inv.CreatedBy, inv.ExpiresAt).
		Scan(&inv.ID, &inv.CreatedAt)
}

// List returns invites, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Invite, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+inviteColumns+` FROM invites ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// AcceptParams is what accepting an invite needs.
type AcceptParams struct {
	Token        string
	Handle       string
	PasswordHash string
	Now          time.Time
}

// Accept locks the invite, creates the artist and its artist-role user, and marks the invite accepted,
// all in one transaction.
func (r *Repository) Accept(ctx context.Context, p AcceptParams) (*models.Artist, *models.User, error) {
	var artist *models.Artist
	var user *models.User
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		inv, err := scanInvite(tx.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token = $1 FOR UPDATE`, p.Token))
		if err != nil {
			return fmt.Errorf("load invite: %w", err)
		}
		if inv == nil {
			return ErrNotFound
		}
		if !inv.Usable(p.Now) {
			return ErrUnusable
		}
		if artist, err = artists.CreateArtist(ctx, tx, p.Handle, inv.ArtistName); err != nil {
			return fmt.Errorf("create artist: %w", err)
		}
		if user, err = auth.CreateUser(ctx, tx, inv.Email, p.PasswordHash, models.RoleArtist, &artist.ID); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE invites SET accepted_at = $2 WHERE id = $1`, inv.ID, p.Now); err != nil {
			return fmt.Errorf("mark invite accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return artist, user, nil
}
