// Package tours manages artist tours and their per-country organization overrides.
package tours

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/geo"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
	"github.com/musicdeclares/amplify/pkg/response"
)

const (
	dateLayout    = "2006-01-02"
	maxWindowDays = 365
)

// Store is the tour persistence the handler needs.
type Store interface {
	Create(ctx context.Context, t *models.Tour) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]*models.Tour, error)
	Update(ctx context.Context, t *models.Tour) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListCountries(ctx context.Context, tourID uuid.UUID) ([]models.TourCountryConfig, error)
	UpsertCountry(ctx context.Context, tourID uuid.UUID, code string, orgID *uuid.UUID, enabled bool) (*models.TourCountryConfig, error)
	DeleteCountry(ctx context.Context, tourID uuid.UUID, code string) (bool, error)
}

// Handler handles tour HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a tours handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// TourRequest is the body for POST /artists/:id/tours and PATCH /tours/:tourId.
// Dates are YYYY-MM-DD. On PATCH, omitted fields keep their stored values.
type TourRequest struct {
	Name               *string `json:"name"`
	StartDate          *string `json:"start_date"`
	EndDate            *string `json:"end_date"`
	PreTourWindowDays  *int    `json:"pre_tour_window_days"`
	PostTourWindowDays *int    `json:"post_tour_window_days"`
	Enabled            *bool   `json:"enabled"`
}

// apply merges req into t and validates the result.
func (req TourRequest) apply(t *models.Tour) string {
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartDate != nil {
		d, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return "start_date must be YYYY-MM-DD"
		}
		t.StartDate = d
	}
	if req.EndDate != nil {
		d, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return "end_date must be YYYY-MM-DD"
		}
		t.EndDate = d
	}
	if req.PreTourWindowDays != nil {
		t.PreTourWindowDays = *req.PreTourWindowDays
	}
	if req.PostTourWindowDays != nil {
		t.PostTourWindowDays = *req.PostTourWindowDays
	}
	if req.Enabled != nil {
		t.Enabled = *req.Enabled
	}

	switch {
	case t.Name == "" || len(t.Name) > 255:
		return "name must be 1–255 characters"
	case t.StartDate.IsZero() || t.EndDate.IsZero():
		return "start_date and end_date required"
	case t.EndDate.Before(t.StartDate):
		return "end_date must not be before start_date"
	case t.PreTourWindowDays < 0 || t.PreTourWindowDays > maxWindowDays,
		t.PostTourWindowDays < 0 || t.PostTourWindowDays > maxWindowDays:
		return "tour window days must be between 0 and 365"
	}
	return ""
}

// ListByArtist handles GET /artists/:id/tours.
func (h *Handler) ListByArtist(c *gin.Context) {
	artistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid artist id")
		return
	}
	list, err := h.store.ListByArtist(c.Request.Context(), artistID)
	if err != nil {
		h.logger.Error("list tours", zap.Error(err))
		response.Internal(c, "failed to list tours")
		return
	}
	if list == nil {
		list = []*models.Tour{}
	}
	response.OK(c, list)
}

// Create handles POST /artists/:id/tours.
func (h *Handler) Create(c *gin.Context) {
	artistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid artist id")
		return
	}
	var req TourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t := &models.Tour{ArtistID: artistID, Enabled: true}
	if msg := req.apply(t); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.store.Create(c.Request.Context(), t); err != nil {
		if database.IsForeignKeyViolation(err) {
			response.NotFound(c, "artist not found")
			return
		}
		h.logger.Error("create tour", zap.Error(err))
		response.Internal(c, "failed to create tour")
		return
	}
	response.Created(c, t)
}

// Get handles GET /tours/:tourId, returning the tour with its countries.
func (h *Handler) Get(c *gin.Context) {
	t := TourFromContext(c)
	countries, err := h.store.ListCountries(c.Request.Context(), t.ID)
	if err != nil {
		response.Internal(c, "failed to load tour countries")
		return
	}
	response.OK(c, models.TourWithCountries{Tour: *t, Countries: countries})
}

// Update handles PATCH /tours/:tourId.
func (h *Handler) Update(c *gin.Context) {
	t := *TourFromContext(c)
	var req TourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.apply(&t); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	found, err := h.store.Update(c.Request.Context(), &t)
	if err != nil {
		h.logger.Error("update tour", zap.Error(err), zap.String("tour_id", t.ID.String()))
		response.Internal(c, "failed to update tour")
		return
	}
	if !found {
		response.NotFound(c, "tour not found")
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /tours/:tourId.
func (h *Handler) Delete(c *gin.Context) {
	t := TourFromContext(c)
	if _, err := h.store.Delete(c.Request.Context(), t.ID); err != nil {
		response.Internal(c, "failed to delete tour")
		return
	}
	response.NoContent(c)
}

// ListCountries handles GET /tours/:tourId/countries.
func (h *Handler) ListCountries(c *gin.Context) {
	t := TourFromContext(c)
	list, err := h.store.ListCountries(c.Request.Context(), t.ID)
	if err != nil {
		response.Internal(c, "failed to load tour countries")
		return
	}
	response.OK(c, list)
}

// CountryRequest is the body for PUT /tours/:tourId/countries/:code.
// A null org_id defers the country to its default organization.
type CountryRequest struct {
	OrgID   *uuid.UUID `json:"org_id"`
	Enabled *bool      `json:"enabled"`
}

// PutCountry handles PUT /tours/:tourId/countries/:code.
func (h *Handler) PutCountry(c *gin.Context) {
	t := TourFromContext(c)
	code, ok := geo.ParseCountryCode(c.Param("code"))
	if !ok {
		response.BadRequest(c, "country code must be two letters")
		return
	}
	var req CountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	cc, err := h.store.UpsertCountry(c.Request.Context(), t.ID, code, req.OrgID, enabled)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			response.BadRequest(c, "organization not found")
			return
		}
		h.logger.Error("upsert tour country", zap.Error(err), zap.String("tour_id", t.ID.String()), zap.String("country", code))
		response.Internal(c, "failed to save tour country")
		return
	}
	response.OK(c, cc)
}

// DeleteCountry handles DELETE /tours/:tourId/countries/:code.
func (h *Handler) DeleteCountry(c *gin.Context) {
	t := TourFromContext(c)
	code, ok := geo.ParseCountryCode(c.Param("code"))
	if !ok {
		response.BadRequest(c, "country code must be two letters")
		return
	}
	found, err := h.store.DeleteCountry(c.Request.Context(), t.ID, code)
	if err != nil {
		response.Internal(c, "failed to delete tour country")
		return
	}
	if !found {
		response.NotFound(c, "country not configured for tour")
		return
	}
	response.NoContent(c)
}
