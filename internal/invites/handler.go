// Package invites onboards artists through admin-issued invite links.
package invites

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/artists"
	"github.com/musicdeclares/amplify/internal/auth"
	"github.com/musicdeclares/amplify/internal/middleware"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/database"
	"github.com/musicdeclares/amplify/pkg/response"
	"github.com/musicdeclares/amplify/pkg/utils"
)

const tokenBytes = 32

// Store is the invite persistence the handler needs.
type Store interface {
	Create(ctx context.Context, inv *models.Invite) error
	List(ctx context.Context) ([]*models.Invite, error)
	Accept(ctx context.Context, p AcceptParams) (*models.Artist, *models.User, error)
}

// TokenIssuer signs a session token for a newly created user.
type TokenIssuer interface {
	Generate(user *models.User) (string, error)
}

// Handler handles invite HTTP endpoints.
type Handler struct {
	store  Store
	tokens TokenIssuer
	expiry time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates an invites handler. Invites expire after expireDays.
func NewHandler(store Store, tokens TokenIssuer, expireDays int, logger *zap.Logger) *Handler {
	if expireDays <= 0 {
		expireDays = 14
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		tokens: tokens,
		expiry: time.Duration(expireDays) * 24 * time.Hour,
		now:    time.Now,
		logger: logger,
	}
}

// CreateInviteRequest is the body for POST /admin/invites.
type CreateInviteRequest struct {
	Email      string `json:"email" binding:"required,email"`
	ArtistName string `json:"artist_name" binding:"required"`
}

// CreatedInvite is returned once on creation; the token is never shown again.
type CreatedInvite struct {
	Invite     *models.Invite `json:"invite"`
	Token      string         `json:"token"`
	AcceptPath string         `json:"accept_path"`
}

// Create handles POST /admin/invites.
func (h *Handler) Create(c *gin.Context) {
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "valid email and artist_name required")
		return
	}
	name := strings.TrimSpace(req.ArtistName)
	if name == "" || len(name) > 255 {
		response.BadRequest(c, "artist_name must be 1–255 characters")
		return
	}
	token, err := utils.RandomToken(tokenBytes)
	if err != nil {
		response.Internal(c, "failed to generate invite token")
		return
	}
	inv := &models.Invite{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		ArtistName: name,
		Token:      token,
		CreatedBy:  c.MustGet(middleware.ContextUserID).(uuid.UUID),
		ExpiresAt:  h.now().UTC().Add(h.expiry),
	}
	if err := h.store.Create(c.Request.Context(), inv); err != nil {
		h.logger.Error("create invite", zap.Error(err))
		response.Internal(c, "failed to create invite")
		return
	}
	h.logger.Info("invite created", zap.String("invite_id", inv.ID.String()), zap.String("email", inv.Email))
	response.Created(c, CreatedInvite{Invite: inv, Token: token, AcceptPath: "/invites/" + token + "/accept"})
}

// List handles GET /admin/invites.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list invites")
		return
	}
	if list == nil {
		list = []*models.Invite{}
	}
	response.OK(c, list)
}

// AcceptInviteRequest is the body for POST /invites/:token/accept.
type AcceptInviteRequest struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// AcceptedInvite is the response to a successful accept: the new artist and a signed-in session.
type AcceptedInvite struct {
	Artist *models.Artist    `json:"artist"`
	Token  string            `json:"token"`
	User   models.UserPublic `json:"user"`
}

// Accept handles POST /invites/:token/accept. Public; the token is the credential.
func (h *Handler) Accept(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.NotFound(c, "invite not found")
		return
	}
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "handle and a password of at least 8 characters required")
		return
	}
	handle, ok := artists.NormalizeHandle(req.Handle)
	if !ok {
		response.BadRequest(c, "handle must be 2–64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		response.BadRequest(c, "password must be at most 72 bytes")
		return
	}
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	artist, user, err := h.store.Accept(c.Request.Context(), AcceptParams{
		Token:        token,
		Handle:       handle,
		PasswordHash: hash,
		Now:          h.now().UTC(),
	})
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "invite not found")
		return
	case errors.Is(err, ErrUnusable):
		response.Gone(c, "invite already accepted or expired")
		return
	case database.IsUniqueViolation(err):
		response.Conflict(c, "handle or email already in use")
		return
	case err != nil:
		h.logger.Error("accept invite", zap.Error(err))
		response.Internal(c, "failed to accept invite")
		return
	}

	session, err := h.tokens.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	h.logger.Info("invite accepted", zap.String("artist_id", artist.ID.String()), zap.String("handle", artist.Handle))
	response.Created(c, AcceptedInvite{Artist: artist, Token: session, User: user.ToPublic()})
}

var _ TokenIssuer = (*auth.JWTService)(nil)
