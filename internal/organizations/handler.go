// Package organizations manages partner organizations and their routing overrides.
package organizations

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/geo"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/urlutil"
	"github.com/musicdeclares/amplify/pkg/response"
)

const (
	// WarningUTMStripped is returned when utm_* params were removed from cta_url.
	WarningUTMStripped = "utm parameters were removed from cta_url; redirects add their own"
	// WarningDomainMismatch is returned when cta_url is not on the website's primary domain.
	WarningDomainMismatch = "cta_url is on a different domain than the organization website"
)

// Store is the organization persistence the handler needs.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context, f ListFilter) ([]*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) (bool, error)
	GetOverride(ctx context.Context, orgID uuid.UUID) (*models.OrgOverride, error)
	SetOverride(ctx context.Context, orgID uuid.UUID, enabled bool, reason string) (*models.OrgOverride, error)
	DeleteOverride(ctx context.Context, orgID uuid.UUID) (bool, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// OrganizationRequest is the body for POST and PATCH /admin/organizations.
// On PATCH, omitted fields keep their stored values and an empty string clears website or cta_url.
type OrganizationRequest struct {
	OrgName        *string `json:"org_name"`
	CountryCode    *string `json:"country_code"`
	Website        *string `json:"website"`
	CTAURL         *string `json:"cta_url"`
	ApprovalStatus *string `json:"approval_status"`
	Notes          *string `json:"notes"`
}

// apply merges req into org, validates it, and returns any warnings about cta_url.
func (req OrganizationRequest) apply(org *models.Organization) (warnings []string, msg string) {
	if req.OrgName != nil {
		org.OrgName = strings.TrimSpace(*req.OrgName)
	}
	if req.CountryCode != nil {
		code, ok := geo.ParseCountryCode(*req.CountryCode)
		if !ok {
			return nil, "country_code must be two letters"
		}
		org.CountryCode = code
	}
	if req.Website != nil {
		org.Website = optionalURL(*req.Website)
		if org.Website != nil && !urlutil.IsWebURL(*org.Website) {
			return nil, "website must be an absolute http(s) URL"
		}
	}
	if req.CTAURL != nil {
		org.CTAURL = optionalURL(*req.CTAURL)
		if org.CTAURL != nil {
			if !urlutil.IsWebURL(*org.CTAURL) {
				return nil, "cta_url must be an absolute http(s) URL"
			}
			if stripped, changed := urlutil.StripUTMParams(*org.CTAURL); changed {
				org.CTAURL = &stripped
				warnings = append(warnings, WarningUTMStripped)
			}
		}
	}
	if req.ApprovalStatus != nil {
		org.ApprovalStatus = models.ApprovalStatus(strings.ToLower(strings.TrimSpace(*req.ApprovalStatus)))
	}
	if req.Notes != nil {
		org.Notes = strings.TrimSpace(*req.Notes)
	}

	switch {
	case org.OrgName == "" || len(org.OrgName) > 255:
		return nil, "org_name must be 1–255 characters"
	case org.CountryCode == "":
		return nil, "country_code required"
	case !org.ApprovalStatus.Valid():
		return nil, "approval_status must be pending, approved or rejected"
	}
	if org.CTAURL != nil && org.Website != nil && !urlutil.IsSamePrimaryDomain(*org.Website, *org.CTAURL) {
		warnings = append(warnings, WarningDomainMismatch)
	}
	return warnings, ""
}

func optionalURL(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// List handles GET /admin/organizations?country=&status=.
func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if v := c.Query("country"); v != "" {
		code, ok := geo.ParseCountryCode(v)
		if !ok {
			response.BadRequest(c, "country must be two letters")
			return
		}
		f.CountryCode = code
	}
	if v := c.Query("status"); v != "" {
		f.ApprovalStatus = models.ApprovalStatus(strings.ToLower(v))
		if !f.ApprovalStatus.Valid() {
			response.BadRequest(c, "status must be pending, approved or rejected")
			return
		}
	}
	list, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list organizations", zap.Error(err))
		response.Internal(c, "failed to load organizations")
		return
	}
	if list == nil {
		list = []*models.Organization{}
	}
	response.OK(c, list)
}

// Create handles POST /admin/organizations. New organizations start pending unless a status is given.
func (h *Handler) Create(c *gin.Context) {
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	org := &models.Organization{ApprovalStatus: models.ApprovalPending}
	warnings, msg := req.apply(org)
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.store.Create(c.Request.Context(), org); err != nil {
		h.logger.Error("create organization", zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.CreatedWithWarnings(c, org, warnings)
}

// Get handles GET /admin/organizations/:id, including any override.
func (h *Handler) Get(c *gin.Context) {
	org, ok := h.load(c)
	if !ok {
		return
	}
	override, err := h.store.GetOverride(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load organization override")
		return
	}
	response.OK(c, gin.H{"organization": org, "override": override})
}

// Update handles PATCH /admin/organizations/:id.
func (h *Handler) Update(c *gin.Context) {
	org, ok := h.load(c)
	if !ok {
		return
	}
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	warnings, msg := req.apply(org)
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}
	found, err := h.store.Update(c.Request.Context(), org)
	if err != nil {
		h.logger.Error("update organization", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to update organization")
		return
	}
	if !found {
		response.NotFound(c, "organization not found")
		return
	}
	response.OKWithWarnings(c, org, warnings)
}

// OverrideRequest is the body for PUT /admin/organizations/:id/override.
type OverrideRequest struct {
	Enabled *bool  `json:"enabled" binding:"required"`
	Reason  string `json:"reason"`
}

// PutOverride handles PUT /admin/organizations/:id/override. enabled=false pauses routing to the org.
func (h *Handler) PutOverride(c *gin.Context) {
	org, ok := h.load(c)
	if !ok {
		return
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "enabled required")
		return
	}
	o, err := h.store.SetOverride(c.Request.Context(), org.ID, *req.Enabled, strings.TrimSpace(req.Reason))
	if err != nil {
		h.logger.Error("set org override", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to save override")
		return
	}
	h.logger.Info("org override set", zap.String("org_id", org.ID.String()), zap.Bool("enabled", o.Enabled))
	response.OK(c, o)
}

// DeleteOverride handles DELETE /admin/organizations/:id/override.
func (h *Handler) DeleteOverride(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	found, err := h.store.DeleteOverride(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to delete override")
		return
	}
	if !found {
		response.NotFound(c, "no override set")
		return
	}
	response.NoContent(c)
}

func (h *Handler) load(c *gin.Context) (*models.Organization, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return nil, false
	}
	org, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load organization")
		return nil, false
	}
	if org == nil {
		response.NotFound(c, "organization not found")
		return nil, false
	}
	return org, true
}
