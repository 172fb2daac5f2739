package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musicdeclares/amplify/internal/models"
)

// Repository handles router_analytics persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Write inserts one row. Re-delivered payloads with the same ID are ignored.
func (r *Repository) Write(ctx context.Context, p models.RouterAnalytics) error {
	const q = `INSERT INTO router_analytics
		(id, artist_handle, country_code, org_id, tour_id, reason_code, destination_url, fallback_ref, timestamp)
		VALUES ($1, $2, NULLIF($3::text, ''), $4, $5, $6, $7, NULLIF($8::text, ''), $9)
		ON CONFLICT (id) DO NOTHING`
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, q, p.ID, p.ArtistHandle, p.CountryCode, p.OrgID, p.TourID, p.ReasonCode, p.DestinationURL, p.FallbackRef, ts)
	if err != nil {
		return fmt.Errorf("insert router analytics: %w", err)
	}
	return nil
}

// FallbackCounts groups fallback rows by ref since the given time. An empty handle covers all artists.
func (r *Repository) FallbackCounts(ctx context.Context, handle string, since time.Time) ([]models.FallbackCount, error) {
	const q = `SELECT fallback_ref, COUNT(*), MAX(timestamp)
		FROM router_analytics
		WHERE fallback_ref IS NOT NULL AND timestamp >= $1 AND ($2::text = '' OR artist_handle = $2::text)
		GROUP BY fallback_ref
		ORDER BY COUNT(*) DESC, fallback_ref`
	rows, err := r.pool.Query(ctx, q, since, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.FallbackCount
	for rows.Next() {
		var fc models.FallbackCount
		if err := rows.Scan(&fc.FallbackRef, &fc.Count, &fc.LastSeen); err != nil {
			return nil, err
		}
		list = append(list, fc)
	}
	return list, rows.Err()
}

// CountSuccess returns how many successful redirects happened since the given time.
func (r *Repository) CountSuccess(ctx context.Context, handle string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM router_analytics
		WHERE fallback_ref IS NULL AND timestamp >= $1 AND ($2::text = '' OR artist_handle = $2::text)`
	var n int
	err := r.pool.QueryRow(ctx, q, since, handle).Scan(&n)
	return n, err
}

// List returns raw rows since the given time, newest first, for export.
func (r *Repository) List(ctx context.Context, handle string, since time.Time) ([]models.RouterAnalytics, error) {
	const q = `SELECT id, artist_handle, COALESCE(country_code, ''), org_id, tour_id, reason_code, destination_url, COALESCE(fallback_ref, ''), timestamp
		FROM router_analytics
		WHERE timestamp >= $1 AND ($2::text = '' OR artist_handle = $2::text)
		ORDER BY timestamp DESC`
	rows, err := r.pool.Query(ctx, q, since, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RouterAnalytics
	for rows.Next() {
		var a models.RouterAnalytics
		if err := rows.Scan(&a.ID, &a.ArtistHandle, &a.CountryCode, &a.OrgID, &a.TourID, &a.ReasonCode, &a.DestinationURL, &a.FallbackRef, &a.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
