package countries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicdeclares/amplify/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSelect(t *testing.T) {
	permanent := models.CountryDefault{ID: uuid.New(), CountryCode: "US"}
	summer := models.CountryDefault{ID: uuid.New(), CountryCode: "US", EffectiveFrom: date(2026, 6, 1), EffectiveTo: date(2026, 8, 31)}
	july := models.CountryDefault{ID: uuid.New(), CountryCode: "US", EffectiveFrom: date(2026, 7, 1), EffectiveTo: date(2026, 7, 31)}
	openEnded := models.CountryDefault{ID: uuid.New(), CountryCode: "US", EffectiveFrom: date(2027, 1, 1)}
	all := []models.CountryDefault{permanent, summer, july, openEnded}

	cases := []struct {
		name string
		day  time.Time
		rows []models.CountryDefault
		want *uuid.UUID
	}{
		{"before any dated row", *date(2026, 5, 31), all, &permanent.ID},
		{"first day inclusive", *date(2026, 6, 1), all, &summer.ID},
		{"latest start wins on overlap", time.Date(2026, 7, 15, 23, 59, 0, 0, time.UTC), all, &july.ID},
		{"last day inclusive", *date(2026, 8, 31), all, &summer.ID},
		{"after range back to permanent", *date(2026, 9, 1), all, &permanent.ID},
		{"open ended", *date(2030, 1, 1), all, &openEnded.ID},
		{"dated only, out of range", *date(2026, 1, 1), []models.CountryDefault{summer}, nil},
		{"none", *date(2026, 1, 1), nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Select(tc.rows, tc.day)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, got.ID)
		})
	}
}

type memStore struct {
	rows []models.CountryDefault
}

func (m *memStore) Create(_ context.Context, d *models.CountryDefault) error {
	for _, r := range m.rows {
		if r.CountryCode == d.CountryCode && r.Permanent() && d.Permanent() {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	d.ID = uuid.New()
	m.rows = append(m.rows, *d)
	return nil
}

func (m *memStore) List(_ context.Context, code string) ([]models.CountryDefault, error) {
	out := []models.CountryDefault{}
	for _, r := range m.rows {
		if code == "" || r.CountryCode == code {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newRouter(store Store) *gin.Engine {
	h := NewHandler(store, nil)
	r := gin.New()
	r.GET("/admin/countries/defaults", h.List)
	r.POST("/admin/countries/defaults", h.Create)
	r.DELETE("/admin/countries/defaults/:id", h.Delete)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestCreateDefault(t *testing.T) {
	store := &memStore{}
	r := newRouter(store)
	org := uuid.NewString()

	w := do(r, http.MethodPost, "/admin/countries/defaults", `{"country_code":"us","org_id":"`+org+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "US", store.rows[0].CountryCode)
	assert.True(t, store.rows[0].Permanent())

	w = do(r, http.MethodPost, "/admin/countries/defaults", `{"country_code":"US","org_id":"`+org+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/admin/countries/defaults",
		`{"country_code":"US","org_id":"`+org+`","effective_from":"2026-06-01","effective_to":"2026-08-31"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, date(2026, 8, 31), store.rows[1].EffectiveTo)

	bad := []string{
		`{"country_code":"US"}`,
		`{"country_code":"USA","org_id":"` + org + `"}`,
		`{"country_code":"US","org_id":"` + org + `","effective_to":"2026-08-31"}`,
		`{"country_code":"US","org_id":"` + org + `","effective_from":"2026-09-01","effective_to":"2026-08-31"}`,
		`{"country_code":"US","org_id":"` + org + `","effective_from":"June"}`,
	}
	for _, b := range bad {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/admin/countries/defaults", b).Code, b)
	}
}

func TestListAndDeleteDefaults(t *testing.T) {
	store := &memStore{}
	r := newRouter(store)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/admin/countries/defaults", `{"country_code":"GB","org_id":"`+uuid.NewString()+`"}`).Code)

	w := do(r, http.MethodGet, "/admin/countries/defaults?country=gb", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"country_code":"GB"`)

	w = do(r, http.MethodGet, "/admin/countries/defaults?country=FR", "")
	assert.Contains(t, w.Body.String(), `"data":[]`)

	id := store.rows[0].ID.String()
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/admin/countries/defaults/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/admin/countries/defaults/"+id, "").Code)
}
