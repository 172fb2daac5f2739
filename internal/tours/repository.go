package tours

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
)

const tourColumns = `id, artist_id, name, start_date, end_date, pre_tour_window_days, post_tour_window_days, enabled, created_at, updated_at`

// Repository handles tour and tour country persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tours repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTour(row pgx.Row) (*models.Tour, error) {
	var t models.Tour
	err := row.Scan(&t.ID, &t.ArtistID, &t.Name, &t.StartDate, &t.EndDate,
		&t.PreTourWindowDays, &t.PostTourWindowDays, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.StartDate = asDate(t.StartDate)
	t.EndDate = asDate(t.EndDate)
	return &t, nil
}

// asDate drops any zone so DATE columns compare as UTC midnights.
func asDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create inserts a tour and fills its generated fields.
func (r *Repository) Create(ctx context.Context, t *models.Tour) error {
	const q = `INSERT INTO tours (artist_id, name, start_date, end_date, pre_tour_window_days, post_tour_window_days, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.ArtistID, t.Name, t.StartDate, t.EndDate,
		t.PreTourWindowDays, t.PostTourWindowDays, t.Enabled).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a tour, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id))
}

// ListByArtist returns an artist's tours, newest start first.
func (r *Repository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]*models.Tour, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tourColumns+` FROM tours WHERE artist_id = $1 ORDER BY start_date DESC, created_at DESC`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update writes every mutable field of t. Returns false if the tour does not exist.
func (r *Repository) Update(ctx context.Context, t *models.Tour) (bool, error) {
	const q = `UPDATE tours SET name = $2, start_date = $3, end_date = $4,
		pre_tour_window_days = $5, post_tour_window_days = $6, enabled = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, t.ID, t.Name, t.StartDate, t.EndDate,
		t.PreTourWindowDays, t.PostTourWindowDays, t.Enabled).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes a tour and, by cascade, its country configs.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const countryColumns = `c.id, c.tour_id, c.country_code, c.org_id, c.enabled, c.created_at, c.updated_at,
	o.id, o.org_name, o.country_code, o.website, o.cta_url, o.approval_status, o.notes, o.created_at, o.updated_at`

// scanCountry reads a tour_country_configs row LEFT JOINed with its organization.
func scanCountry(row pgx.Row) (*models.TourCountryConfig, error) {
	var cc models.TourCountryConfig
	var (
		orgID                        *uuid.UUID
		name, country, status, notes *string
		website, cta                 *string
		orgCreatedAt, orgUpdatedAt   *time.Time
	)
	err := row.Scan(&cc.ID, &cc.TourID, &cc.CountryCode, &cc.OrgID, &cc.Enabled, &cc.CreatedAt, &cc.UpdatedAt,
		&orgID, &name, &country, &website, &cta, &status, &notes, &orgCreatedAt, &orgUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if orgID != nil {
		org := &models.Organization{ID: *orgID, Website: website, CTAURL: cta}
		org.OrgName = deref(name)
		org.CountryCode = deref(country)
		org.ApprovalStatus = models.ApprovalStatus(deref(status))
		org.Notes = deref(notes)
		if orgCreatedAt != nil {
			org.CreatedAt = *orgCreatedAt
		}
		if orgUpdatedAt != nil {
			org.UpdatedAt = *orgUpdatedAt
		}
		cc.Org = org
	}
	return &cc, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListCountries returns a tour's country configs with their organizations, ordered by country code.
func (r *Repository) ListCountries(ctx context.Context, tourID uuid.UUID) ([]models.TourCountryConfig, error) {
	const q = `SELECT ` + countryColumns + `
		FROM tour_country_configs c
		LEFT JOIN organizations o ON o.id = c.org_id
		WHERE c.tour_id = $1
		ORDER BY c.country_code`
	return r.queryCountries(ctx, q, tourID)
}

func (r *Repository) queryCountries(ctx context.Context, q string, args ...any) ([]models.TourCountryConfig, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.TourCountryConfig{}
	for rows.Next() {
		cc, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cc)
	}
	return list, rows.Err()
}

// UpsertCountry creates or replaces the config for (tourID, code). code must already be upper-case.
func (r *Repository) UpsertCountry(ctx context.Context, tourID uuid.UUID, code string, orgID *uuid.UUID, enabled bool) (*models.TourCountryConfig, error) {
	const q = `INSERT INTO tour_country_configs (tour_id, country_code, org_id, enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tour_id, country_code) DO UPDATE
		SET org_id = EXCLUDED.org_id, enabled = EXCLUDED.enabled, updated_at = NOW()
		RETURNING id, tour_id, country_code, org_id, enabled, created_at, updated_at`
	var cc models.TourCountryConfig
	err := r.pool.QueryRow(ctx, q, tourID, code, orgID, enabled).
		Scan(&cc.ID, &cc.TourID, &cc.CountryCode, &cc.OrgID, &cc.Enabled, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

// DeleteCountry removes the config for (tourID, code).
func (r *Repository) DeleteCountry(ctx context.Context, tourID uuid.UUID, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tour_country_configs WHERE tour_id = $1 AND country_code = $2`, tourID, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListEnabledWithCountries returns an artist's enabled tours, newest start first,
// each with all of its country configs and their organizations.
func (r *Repository) ListEnabledWithCountries(ctx context.Context, artistID uuid.UUID) ([]models.TourWithCountries, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tourColumns+` FROM tours
		WHERE artist_id = $1 AND enabled
		ORDER BY start_date DESC, created_at DESC`, artistID)
	if err != nil {
		return nil, err
	}
	var list []models.TourWithCountries
	var ids []string
	index := map[uuid.UUID]int{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[t.ID] = len(list)
		ids = append(ids, t.ID.String())
		list = append(list, models.TourWithCountries{Tour: *t})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	const q = `SELECT ` + countryColumns + `
		FROM tour_country_configs c
		LEFT JOIN organizations o ON o.id = c.org_id
		WHERE c.tour_id = ANY($1::uuid[])
		ORDER BY c.country_code`
	countries, err := r.queryCountries(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, cc := range countries {
		i := index[cc.TourID]
		list[i].Countries = append(list[i].Countries, cc)
	}
	return list, nil
}
