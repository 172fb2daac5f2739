package routerconfig

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/urlutil"
	"github.com/musicdeclares/amplify/pkg/response"
)

// Handler exposes the fallback URL setting to admins.
type Handler struct {
	repo  *Repository
	cache *FallbackCache
}

// NewHandler creates a router config handler.
func NewHandler(repo *Repository, cache *FallbackCache) *Handler {
	return &Handler{repo: repo, cache: cache}
}

// SetFallbackURLRequest is the body for PUT /admin/router-config/fallback-url.
type SetFallbackURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// GetFallbackURL handles GET /admin/router-config/fallback-url. Returns stored and effective values.
func (h *Handler) GetFallbackURL(c *gin.Context) {
	rc, err := h.repo.Get(c.Request.Context(), models.ConfigKeyFallbackURL)
	if err != nil {
		response.Internal(c, "failed to load router config")
		return
	}
	out := gin.H{"effective": h.cache.FallbackURL(c.Request.Context())}
	if rc != nil {
		out["stored"] = rc
	}
	response.OK(c, out)
}

// SetFallbackURL handles PUT /admin/router-config/fallback-url. The cache picks it up after its TTL.
func (h *Handler) SetFallbackURL(c *gin.Context) {
	var body SetFallbackURLRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "url required")
		return
	}
	raw := strings.TrimSpace(body.URL)
	if !urlutil.IsWebURL(raw) {
		response.BadRequest(c, "url must be an absolute http(s) URL")
		return
	}
	rc, err := h.repo.Set(c.Request.Context(), models.ConfigKeyFallbackURL, raw)
	if err != nil {
		response.Internal(c, "failed to save router config")
		return
	}
	response.OK(c, rc)
}
