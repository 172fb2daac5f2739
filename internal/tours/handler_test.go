package tours

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicdeclares/amplify/internal/middleware"
	"github.com/musicdeclares/amplify/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	tours     map[uuid.UUID]*models.Tour
	countries map[uuid.UUID]map[string]models.TourCountryConfig
}

func newMemStore() *memStore {
	return &memStore{tours: map[uuid.UUID]*models.Tour{}, countries: map[uuid.UUID]map[string]models.TourCountryConfig{}}
}

func (m *memStore) Create(_ context.Context, t *models.Tour) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	m.tours[t.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Tour, error) {
	t, ok := m.tours[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListByArtist(_ context.Context, artistID uuid.UUID) ([]*models.Tour, error) {
	var out []*models.Tour
	for _, t := range m.tours {
		if t.ArtistID == artistID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, t *models.Tour) (bool, error) {
	if _, ok := m.tours[t.ID]; !ok {
		return false, nil
	}
	cp := *t
	m.tours[t.ID] = &cp
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.tours[id]
	delete(m.tours, id)
	delete(m.countries, id)
	return ok, nil
}

func (m *memStore) ListCountries(_ context.Context, tourID uuid.UUID) ([]models.TourCountryConfig, error) {
	out := []models.TourCountryConfig{}
	for _, cc := range m.countries[tourID] {
		out = append(out, cc)
	}
	return out, nil
}

func (m *memStore) UpsertCountry(_ context.Context, tourID uuid.UUID, code string, orgID *uuid.UUID, enabled bool) (*models.TourCountryConfig, error) {
	if m.countries[tourID] == nil {
		m.countries[tourID] = map[string]models.TourCountryConfig{}
	}
	cc := models.TourCountryConfig{ID: uuid.New(), TourID: tourID, CountryCode: code, OrgID: orgID, Enabled: enabled}
	m.countries[tourID][code] = cc
	return &cc, nil
}

func (m *memStore) DeleteCountry(_ context.Context, tourID uuid.UUID, code string) (bool, error) {
	_, ok := m.countries[tourID][code]
	delete(m.countries[tourID], code)
	return ok, nil
}

// principal sets the auth context the JWT middleware would.
func principal(role string, artistID *uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserRole, role)
		if artistID != nil {
			c.Set(middleware.ContextArtistID, *artistID)
		}
	}
}

func newRouter(store *memStore, role string, artistID *uuid.UUID) *gin.Engine {
	h := NewHandler(store, nil)
	r := gin.New()
	r.Use(principal(role, artistID))
	r.GET("/artists/:id/tours", middleware.RequireArtistAccess(), h.ListByArtist)
	r.POST("/artists/:id/tours", middleware.RequireArtistAccess(), h.Create)
	tour := r.Group("/tours/:tourId", RequireTourAccess(store))
	tour.GET("", h.Get)
	tour.PATCH("", h.Update)
	tour.DELETE("", h.Delete)
	tour.GET("/countries", h.ListCountries)
	tour.PUT("/countries/:code", h.PutCountry)
	tour.DELETE("/countries/:code", h.DeleteCountry)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestCreateTour(t *testing.T) {
	artistID := uuid.New()
	store := newMemStore()
	r := newRouter(store, "artist", &artistID)
	path := "/artists/" + artistID.String() + "/tours"

	w := do(r, http.MethodPost, path, `{"name":"In Rainbows","start_date":"2026-06-01","end_date":"2026-06-30","pre_tour_window_days":7}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data models.Tour `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, artistID, body.Data.ArtistID)
	assert.True(t, body.Data.Enabled)
	assert.Equal(t, 7, body.Data.PreTourWindowDays)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), body.Data.EndDate)

	bad := []string{
		`{"name":"x","start_date":"2026-06-30","end_date":"2026-06-01"}`,
		`{"name":"x","start_date":"06/01/2026","end_date":"2026-06-30"}`,
		`{"name":"x","start_date":"2026-06-01","end_date":"2026-06-30","post_tour_window_days":-1}`,
		`{"start_date":"2026-06-01","end_date":"2026-06-30"}`,
		`{"name":"x"}`,
	}
	for _, b := range bad {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, path, b).Code, b)
	}

	other := "/artists/" + uuid.NewString() + "/tours"
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, other, `{}`).Code)
}

func seedTour(store *memStore, artistID uuid.UUID) *models.Tour {
	t := &models.Tour{
		ArtistID:  artistID,
		Name:      "In Rainbows",
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Enabled:   true,
	}
	_ = store.Create(context.Background(), t)
	return t
}

func TestUpdateTour_PartialPatch(t *testing.T) {
	artistID := uuid.New()
	store := newMemStore()
	tour := seedTour(store, artistID)
	r := newRouter(store, "artist", &artistID)

	w := do(r, http.MethodPatch, "/tours/"+tour.ID.String(), `{"post_tour_window_days":3,"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := store.tours[tour.ID]
	assert.Equal(t, 3, got.PostTourWindowDays)
	assert.False(t, got.Enabled)
	assert.Equal(t, "In Rainbows", got.Name)

	w = do(r, http.MethodPatch, "/tours/"+tour.ID.String(), `{"end_date":"2026-05-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTourAccess(t *testing.T) {
	owner := uuid.New()
	intruder := uuid.New()
	store := newMemStore()
	tour := seedTour(store, owner)
	path := "/tours/" + tour.ID.String()

	assert.Equal(t, http.StatusOK, do(newRouter(store, "artist", &owner), http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusForbidden, do(newRouter(store, "artist", &intruder), http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusOK, do(newRouter(store, "admin", nil), http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(newRouter(store, "admin", nil), http.MethodGet, "/tours/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(newRouter(store, "admin", nil), http.MethodGet, "/tours/x", "").Code)
}

func TestTourCountries(t *testing.T) {
	artistID := uuid.New()
	store := newMemStore()
	tour := seedTour(store, artistID)
	r := newRouter(store, "artist", &artistID)
	base := "/tours/" + tour.ID.String() + "/countries"
	orgID := uuid.New()

	w := do(r, http.MethodPut, base+"/us", `{"org_id":"`+orgID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cc := store.countries[tour.ID]["US"]
	require.NotNil(t, cc.OrgID)
	assert.Equal(t, orgID, *cc.OrgID)
	assert.True(t, cc.Enabled)

	w = do(r, http.MethodPut, base+"/GB", `{"org_id":null,"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.countries[tour.ID]["GB"].OrgID)
	assert.False(t, store.countries[tour.ID]["GB"].Enabled)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, base+"/USA", `{}`).Code)

	w = do(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"country_code":"US"`)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, base+"/us", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, base+"/us", "").Code)
}

func TestDeleteTour(t *testing.T) {
	artistID := uuid.New()
	store := newMemStore()
	tour := seedTour(store, artistID)
	r := newRouter(store, "admin", nil)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/tours/"+tour.ID.String(), "").Code)
	assert.Empty(t, store.tours)
}
