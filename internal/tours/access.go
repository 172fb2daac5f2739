package tours

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/musicdeclares/amplify/internal/middleware"
	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/response"
)

// ContextTour is the key for the tour loaded by RequireTourAccess.
const ContextTour = "tour"

// TourLookup loads a tour by ID.
type TourLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
}

// RequireTourAccess loads /tours/:tourId and allows admins or the artist who owns it.
func RequireTourAccess(lookup TourLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tourID, err := uuid.Parse(c.Param("tourId"))
		if err != nil {
			response.BadRequest(c, "invalid tour id")
			c.Abort()
			return
		}
		t, err := lookup.GetByID(c.Request.Context(), tourID)
		if err != nil {
			response.Internal(c, "failed to load tour")
			c.Abort()
			return
		}
		if t == nil {
			response.NotFound(c, "tour not found")
			c.Abort()
			return
		}
		if !middleware.CanAccessArtist(c, t.ArtistID) {
			response.Forbidden(c, "not authorized for this tour")
			c.Abort()
			return
		}
		c.Set(ContextTour, t)
		c.Next()
	}
}

// TourFromContext returns the tour set by RequireTourAccess.
func TourFromContext(c *gin.Context) *models.Tour {
	return c.MustGet(ContextTour).(*models.Tour)
}
