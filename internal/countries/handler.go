// Package countries manages country-level default organizations.
package countries

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

const dateLayout = "2006-01-02"

// Store is the country default persistence the handler needs.
type Store interface {
	Create(ctx context.Context, d *models.CountryDefault) error
	List(ctx context.Context, countryCode string) ([]models.CountryDefault, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler handles country default HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a country defaults handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateDefaultRequest is the body for POST /admin/countries/defaults.
// Omit effective_from for the permanent default. effective_to requires effective_from.
type CreateDefaultRequest struct {
	CountryCode   string    `json:"country_code" binding:"required"`
	OrgID         uuid.UUID `json:"org_id" binding:"required"`
	EffectiveFrom string    `json:"effective_from"`
	EffectiveTo   string    `json:"effective_to"`
	Notes         string    `json:"notes"`
}

// List handles GET /admin/countries/defaults?country=.
func (h *Handler) List(c *gin.Context) {
	code := ""
	if v := c.Query("country"); v != "" {
		var ok bool
		if code, ok = geo.ParseCountryCode(v); !ok {
			response.BadRequest(c, "country must be two letters")
			return
		}
	}
	list, err := h.store.List(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("list country defaults", zap.Error(err))
		response.Internal(c, "failed to load country defaults")
		return
	}
	response.OK(c, list)
}

// Create handles POST /admin/countries/defaults.
func (h *Handler) Create(c *gin.Context) {
	var req CreateDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "country_code and org_id required")
		return
	}
	code, ok := geo.ParseCountryCode(req.CountryCode)
	if !ok {
		response.BadRequest(c, "country_code must be two letters")
		return
	}
	d := &models.CountryDefault{CountryCode: code, OrgID: req.OrgID, Notes: strings.TrimSpace(req.Notes)}
	if req.EffectiveFrom != "" {
		from, err := time.Parse(dateLayout, req.EffectiveFrom)
		if err != nil {
			response.BadRequest(c, "effective_from must be YYYY-MM-DD")
			return
		}
		d.EffectiveFrom = &from
	}
	if req.EffectiveTo != "" {
		if d.EffectiveFrom == nil {
			response.BadRequest(c, "effective_to requires effective_from")
			return
		}
		to, err := time.Parse(dateLayout, req.EffectiveTo)
		if err != nil {
			response.BadRequest(c, "effective_to must be YYYY-MM-DD")
			return
		}
		if to.Before(*d.EffectiveFrom) {
			response.BadRequest(c, "effective_to must not be before effective_from")
			return
		}
		d.EffectiveTo = &to
	}
	if err := h.store.Create(c.Request.Context(), d); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			response.Conflict(c, "country already has a permanent default")
		case database.IsForeignKeyViolation(err):
			response.BadRequest(c, "organization not found")
		default:
			h.logger.Error("create country default", zap.Error(err))
			response.Internal(c, "failed to create country default")
		}
		return
	}
	response.Created(c, d)
}

// Delete handles DELETE /admin/countries/defaults/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid country default id")
		return
	}
	found, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to delete country default")
		return
	}
	if !found {
		response.NotFound(c, "country default not found")
		return
	}
	response.NoContent(c)
}
