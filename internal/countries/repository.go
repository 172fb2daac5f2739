package countries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
)

const defaultColumns = `id, country_code, org_id, effective_from, effective_to, COALESCE(notes, ''), created_at`

// Repository handles country default persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a country defaults repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanDefault(row pgx.Row) (*models.CountryDefault, error) {
	var d models.CountryDefault
	err := row.Scan(&d.ID, &d.CountryCode, &d.OrgID, &d.EffectiveFrom, &d.EffectiveTo, &d.Notes, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a country default. A second permanent row for a country violates a unique index.
func (r *Repository) Create(ctx context.Context, d *models.CountryDefault) error {
	const q = `INSERT INTO country_defaults (country_code, org_id, effective_from, effective_to, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, d.CountryCode, d.OrgID, d.EffectiveFrom, d.EffectiveTo, d.Notes).
		Scan(&d.ID, &d.CreatedAt)
}

// List returns defaults ordered by country, permanent row first. An empty code lists all countries.
func (r *Repository) List(ctx context.Context, countryCode string) ([]models.CountryDefault, error) {
	const q = `SELECT ` + defaultColumns + ` FROM country_defaults
		WHERE ($1::text = '' OR country_code = $1::text)
		ORDER BY country_code, effective_from NULLS FIRST`
	rows, err := r.pool.Query(ctx, q, countryCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.CountryDefault{}
	for rows.Next() {
		d, err := scanDefault(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// Delete removes a country default.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM country_defaults WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DefaultOrg returns the organization that is the country default on day, or nil.
func (r *Repository) DefaultOrg(ctx context.Context, countryCode string, day time.Time) (*models.Organization, error) {
	defaults, err := r.List(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	d := Select(defaults, day)
	if d == nil {
		return nil, nil
	}
	const q = `SELECT id, org_name, country_code, website, cta_url, approval_status, COALESCE(notes, ''), created_at, updated_at
		FROM organizations WHERE id = $1`
	var o models.Organization
	var status string
	err = r.pool.QueryRow(ctx, q, d.OrgID).
		Scan(&o.ID, &o.OrgName, &o.CountryCode, &o.Website, &o.CTAURL, &status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.ApprovalStatus = models.ApprovalStatus(status)
	return &o, nil
}

// Select picks the default in effect on day: a dated row covering day wins over the permanent row,
// and among dated rows the latest EffectiveFrom wins.
func Select(defaults []models.CountryDefault, day time.Time) *models.CountryDefault {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	var dated, permanent *models.CountryDefault
	for i := range defaults {
		d := &defaults[i]
		switch {
		case d.Permanent():
			if permanent == nil {
				permanent = d
			}
		case d.CoversDay(day):
			if dated == nil || d.EffectiveFrom.After(*dated.EffectiveFrom) {
				dated = d
			}
		}
	}
	if dated != nil {
		return dated
	}
	return permanent
}
