package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/musicdeclares/amplify/internal/auth"
	"github.com/musicdeclares/amplify/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func bearer(t *testing.T, svc *auth.JWTService, u *models.User) string {
	t.Helper()
	token, err := svc.Generate(u)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWT(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	artistID := uuid.New()
	user := &models.User{ID: uuid.New(), Email: "a@example.com", Role: models.RoleArtist, ArtistID: &artistID}

	r := gin.New()
	r.GET("/me", JWT(svc), func(c *gin.Context) {
		assert.Equal(t, user.ID, c.MustGet(ContextUserID))
		assert.Equal(t, "artist", c.GetString(ContextUserRole))
		assert.Equal(t, artistID, c.MustGet(ContextArtistID))
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", bearer(t, svc, user), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := gin.New()
	r.GET("/admin", JWT(svc), RequireRole(models.RoleAdmin), ok)

	artistID := uuid.New()
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	artist := &models.User{ID: uuid.New(), Role: models.RoleArtist, ArtistID: &artistID}

	for _, tc := range []struct {
		user *models.User
		want int
	}{{admin, http.StatusOK}, {artist, http.StatusForbidden}} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", bearer(t, svc, tc.user))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.user.Role)
	}

	w := httptest.NewRecorder()
	e := gin.New()
	e.GET("/x", RequireRole(models.RoleAdmin), ok)
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireArtistAccess(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := gin.New()
	r.GET("/artists/:id", JWT(svc), RequireArtistAccess(), ok)

	own := uuid.New()
	other := uuid.New()
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	artist := &models.User{ID: uuid.New(), Role: models.RoleArtist, ArtistID: &own}

	cases := []struct {
		name string
		user *models.User
		path string
		want int
	}{
		{"admin any artist", admin, "/artists/" + other.String(), http.StatusOK},
		{"artist own", artist, "/artists/" + own.String(), http.StatusOK},
		{"artist other", artist, "/artists/" + other.String(), http.StatusForbidden},
		{"bad id", artist, "/artists/xyz", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", bearer(t, svc, tc.user))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000, https://dash.example/"))
	r.GET("/x", ok)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://dash.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://dash.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/a/:handle", func(c *gin.Context) { c.Status(http.StatusFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/a/radiohead", "/boom", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "radiohead", entries[0].ContextMap()["handle"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[2].ContextMap()["status"])
}
