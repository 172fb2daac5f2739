package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRouter struct {
	res Result
	got Request
}

func (s *stubRouter) Route(_ context.Context, req Request) Result {
	s.got = req
	return s.res
}

func newHandlerRouter(r Router) *gin.Engine {
	h := NewHandler(r, nil, "", "", nil)
	e := gin.New()
	e.GET("/a/:handle", h.Redirect)
	e.GET("/api/fallback", h.FallbackMessage)
	return e
}

func TestRedirect_SuccessAppendsUTM(t *testing.T) {
	stub := &stubRouter{res: Result{Success: true, DestinationURL: "https://example.com/act?x=1", ReasonCode: ReasonSuccess}}
	e := newHandlerRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/a/Tame-Impala", nil)
	req.Header.Set("X-Vercel-IP-Country", "us")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, Request{ArtistSlug: "tame-impala", CountryCode: "US"}, stub.got)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", loc.Host)
	q := loc.Query()
	assert.Equal(t, "amplify", q.Get("utm_source"))
	assert.Equal(t, "referral", q.Get("utm_medium"))
	assert.Equal(t, "tame-impala", q.Get("utm_campaign"))
	assert.Equal(t, "1", q.Get("x"))
}

func TestRedirect_FallbackUntouched(t *testing.T) {
	dest := "https://musicdeclares.net/amplify?ref=no_tour&artist=Radiohead"
	stub := &stubRouter{res: Result{DestinationURL: dest, ReasonCode: ReasonNoActiveTour, FallbackRef: RefNoTour}}
	e := newHandlerRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/a/radiohead", nil)
	req.Header.Set("X-Vercel-IP-Country", "XX")
	req.Header.Set("CF-IPCountry", "GB")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, dest, w.Header().Get("Location"))
	assert.Equal(t, "GB", stub.got.CountryCode)
}

func TestRedirect_NoGeoHeaders(t *testing.T) {
	stub := &stubRouter{res: Result{DestinationURL: "https://f.example/?ref=no_country"}}
	e := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/a/radiohead", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, stub.got.CountryCode)
}

func TestRedirect_EndToEndWithEngine(t *testing.T) {
	f := newFixture(t)
	e := newHandlerRouter(f.engine)

	req := httptest.NewRequest(http.MethodGet, "/a/radiohead", nil)
	req.Header.Set("X-Vercel-IP-Country", "US")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com?utm_campaign=radiohead&utm_medium=referral&utm_source=amplify", w.Header().Get("Location"))
	p := f.sink.last(t)
	assert.Equal(t, "success", p.ReasonCode)
	assert.Equal(t, "https://example.com", p.DestinationURL)
}

type fallbackBody struct {
	Data FallbackResponse `json:"data"`
}

func TestHandler_FallbackMessage(t *testing.T) {
	e := newHandlerRouter(&stubRouter{})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fallback?ref=no_tour&artist=Radiohead", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body fallbackBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no_tour", body.Data.Ref)
	assert.Contains(t, body.Data.Message, "Radiohead")

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fallback?ref=country_not_supported&country=fr", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FR", body.Data.Country)
	assert.Contains(t, body.Data.Message, "This artist")

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fallback?ref=made_up", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data.Ref)
	assert.Equal(t, genericReason.Title, body.Data.Title)
}
