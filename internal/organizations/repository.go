package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
)

const orgColumns = `id, org_name, country_code, website, cta_url, approval_status, COALESCE(notes, ''), created_at, updated_at`

// Repository handles organization and org override persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	var status string
	err := row.Scan(&o.ID, &o.OrgName, &o.CountryCode, &o.Website, &o.CTAURL, &status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.ApprovalStatus = models.ApprovalStatus(status)
	return &o, nil
}

// Create inserts an organization and fills its generated fields.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	const q = `INSERT INTO organizations (org_name, country_code, website, cta_url, approval_status, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, org.OrgName, org.CountryCode, org.Website, org.CTAURL, string(org.ApprovalStatus), org.Notes).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

// GetByID returns an organization, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	CountryCode    string
	ApprovalStatus models.ApprovalStatus
}

// List returns organizations ordered by country then name.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations
		WHERE ($1::text = '' OR country_code = $1::text)
		AND ($2::text = '' OR approval_status = $2::text)
		ORDER BY country_code, org_name`
	rows, err := r.pool.Query(ctx, q, f.CountryCode, string(f.ApprovalStatus))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update writes every mutable field of org. Returns false if it does not exist.
func (r *Repository) Update(ctx context.Context, org *models.Organization) (bool, error) {
	const q = `UPDATE organizations SET org_name = $2, country_code = $3, website = $4, cta_url = $5,
		approval_status = $6, notes = NULLIF($7, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, org.ID, org.OrgName, org.CountryCode, org.Website, org.CTAURL,
		string(org.ApprovalStatus), org.Notes).Scan(&org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetOverride returns the override for orgID, or nil when none is set.
func (r *Repository) GetOverride(ctx context.Context, orgID uuid.UUID) (*models.OrgOverride, error) {
	const q = `SELECT org_id, enabled, COALESCE(reason, ''), updated_at FROM org_overrides WHERE org_id = $1`
	var o models.OrgOverride
	err := r.pool.QueryRow(ctx, q, orgID).Scan(&o.OrgID, &o.Enabled, &o.Reason, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SetOverride creates or replaces the override for orgID.
func (r *Repository) SetOverride(ctx context.Context, orgID uuid.UUID, enabled bool, reason string) (*models.OrgOverride, error) {
	const q = `INSERT INTO org_overrides (org_id, enabled, reason)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (org_id) DO UPDATE SET enabled = EXCLUDED.enabled, reason = EXCLUDED.reason, updated_at = NOW()
		RETURNING org_id, enabled, COALESCE(reason, ''), updated_at`
	var o models.OrgOverride
	if err := r.pool.QueryRow(ctx, q, orgID, enabled, reason).Scan(&o.OrgID, &o.Enabled, &o.Reason, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteOverride removes the override for orgID.
func (r *Repository) DeleteOverride(ctx context.Context, orgID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM org_overrides WHERE org_id = $1`, orgID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
