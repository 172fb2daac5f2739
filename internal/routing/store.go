package routing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/musicdeclares/amplify/internal/artists"
	"github.com/musicdeclares/amplify/internal/countries"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/organizations"
	"github.com/musicdeclares/amplify/internal/tours"
)

// PostgresStore reads routing data through the feature repositories.
type PostgresStore struct {
	artists   *artists.Repository
	tours     *tours.Repository
	orgs      *organizations.Repository
	countries *countries.Repository
}

// NewPostgresStore creates a Store backed by the given repositories.
func NewPostgresStore(a *artists.Repository, t *tours.Repository, o *organizations.Repository, c *countries.Repository) *PostgresStore {
	return &PostgresStore{artists: a, tours: t, orgs: o, countries: c}
}

func (s *PostgresStore) EnabledArtistByHandle(ctx context.Context, handle string) (*models.Artist, error) {
	return s.artists.GetEnabledByHandle(ctx, handle)
}

func (s *PostgresStore) EnabledToursWithCountries(ctx context.Context, artistID uuid.UUID) ([]models.TourWithCountries, error) {
	return s.tours.ListEnabledWithCountries(ctx, artistID)
}

func (s *PostgresStore) OrgOverride(ctx context.Context, orgID uuid.UUID) (*models.OrgOverride, error) {
	return s.orgs.GetOverride(ctx, orgID)
}

func (s *PostgresStore) CountryDefaultOrg(ctx context.Context, countryCode string, day time.Time) (*models.Organization, error) {
	return s.countries.DefaultOrg(ctx, countryCode, day)
}

var _ Store = (*PostgresStore)(nil)
