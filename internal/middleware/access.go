package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/musicdeclares/amplify/pkg/response"
)

// CanAccessArtist reports whether the principal may manage artistID: admins always, artists only their own.
func CanAccessArtist(c *gin.Context, artistID uuid.UUID) bool {
	if IsAdmin(c) {
		return true
	}
	v, ok := c.Get(ContextArtistID)
	if !ok {
		return false
	}
	own, _ := v.(uuid.UUID)
	return own == artistID
}

// RequireArtistAccess guards /artists/:id routes.
func RequireArtistAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		artistID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid artist id")
			c.Abort()
			return
		}
		if !CanAccessArtist(c, artistID) {
			response.Forbidden(c, "not authorized for this artist")
			c.Abort()
			return
		}
		c.Next()
	}
}
