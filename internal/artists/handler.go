// Package artists manages artist records and their fan-link handles.
package artists

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/middleware"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
	"github.com/musicdeclares/amplify/pkg/response"
)

// Handle must be lowercase alphanumeric and hyphens only, 2–64 chars.
var handleRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// NormalizeHandle lowercases and trims a handle and reports whether it is valid.
func NormalizeHandle(s string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(s))
	return h, handleRegex.MatchString(h)
}

// Store is the artist persistence the handler needs.
type Store interface {
	Create(ctx context.Context, handle, name string) (*models.Artist, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
	List(ctx context.Context) ([]*models.Artist, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Artist, error)
}

// Handler handles artist HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an artists handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateArtistRequest is the body for POST /admin/artists.
type CreateArtistRequest struct {
	Handle string `json:"handle" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// UpdateArtistRequest is the body for PATCH /artists/:id. Only admins may change the handle.
type UpdateArtistRequest struct {
	Handle *string `json:"handle"`
	Name   *string `json:"name"`
}

// List handles GET /admin/artists.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list artists", zap.Error(err))
		response.Internal(c, "failed to list artists")
		return
	}
	if list == nil {
		list = []*models.Artist{}
	}
	response.OK(c, list)
}

// Create handles POST /admin/artists.
func (h *Handler) Create(c *gin.Context) {
	var body CreateArtistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "handle and name required")
		return
	}
	handle, ok := NormalizeHandle(body.Handle)
	if !ok {
		response.BadRequest(c, "handle must be 2–64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}
	artist, err := h.store.Create(c.Request.Context(), handle, name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an artist with this handle already exists")
			return
		}
		h.logger.Error("create artist", zap.Error(err))
		response.Internal(c, "failed to create artist")
		return
	}
	response.Created(c, artist)
}

// Get handles GET /artists/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	artist, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load artist")
		return
	}
	if artist == nil {
		response.NotFound(c, "artist not found")
		return
	}
	response.OK(c, artist)
}

// Update handles PATCH /artists/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body UpdateArtistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var p UpdateParams
	if body.Handle != nil {
		if !middleware.IsAdmin(c) {
			response.Forbidden(c, "only admins can change an artist handle")
			return
		}
		handle, ok := NormalizeHandle(*body.Handle)
		if !ok {
			response.BadRequest(c, "handle must be 2–64 chars, lowercase letters, numbers, hyphens only")
			return
		}
		p.Handle = &handle
	}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || len(name) > 255 {
			response.BadRequest(c, "name must be 1–255 characters")
			return
		}
		p.Name = &name
	}
	h.update(c, id, p)
}

// Disable handles POST /admin/artists/:id/disable. A disabled artist's link routes to the fallback.
func (h *Handler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

// Enable handles POST /admin/artists/:id/enable.
func (h *Handler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

func (h *Handler) setEnabled(c *gin.Context, enabled bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.update(c, id, UpdateParams{Enabled: &enabled})
}

func (h *Handler) update(c *gin.Context, id uuid.UUID, p UpdateParams) {
	artist, err := h.store.Update(c.Request.Context(), id, p)
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an artist with this handle already exists")
			return
		}
		h.logger.Error("update artist", zap.Error(err), zap.String("artist_id", id.String()))
		response.Internal(c, "failed to update artist")
		return
	}
	if artist == nil {
		response.NotFound(c, "artist not found")
		return
	}
	response.OK(c, artist)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid artist id")
		return uuid.Nil, false
	}
	return id, true
}
