package routing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/geo"
	"github.com/musicdeclares/amplify/internal/urlutil"
	"github.com/musicdeclares/amplify/pkg/response"
)

// Router is the decision the redirect handler delegates to.
type Router interface {
	Route(ctx context.Context, req Request) Result
}

// Handler serves the public fan link and the fallback landing copy.
type Handler struct {
	router    Router
	geo       *geo.Resolver
	utmSource string
	utmMedium string
	logger    *zap.Logger
}

// NewHandler creates a routing handler. Empty UTM values use the urlutil defaults.
func NewHandler(router Router, resolver *geo.Resolver, utmSource, utmMedium string, logger *zap.Logger) *Handler {
	if resolver == nil {
		resolver = geo.NewResolver()
	}
	if utmSource == "" {
		utmSource = urlutil.DefaultUTMSource
	}
	if utmMedium == "" {
		utmMedium = urlutil.DefaultUTMMedium
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{router: router, geo: resolver, utmSource: utmSource, utmMedium: utmMedium, logger: logger}
}

// Redirect handles GET /a/:handle. It always answers 302: to the organization on success
// (UTM-tagged with the handle as campaign) or to the fallback page otherwise.
func (h *Handler) Redirect(c *gin.Context) {
	handle := strings.ToLower(strings.TrimSpace(c.Param("handle")))
	country, _ := h.geo.CountryFromRequest(c.Request)

	res := h.router.Route(c.Request.Context(), Request{ArtistSlug: handle, CountryCode: country})
	dest := res.DestinationURL
	if res.Success {
		dest = urlutil.AppendUTM(dest, h.utmSource, h.utmMedium, handle)
	}

	h.logger.Debug("fan link routed",
		zap.String("handle", handle),
		zap.String("country", country),
		zap.String("reason_code", string(res.ReasonCode)),
		zap.String("fallback_ref", string(res.FallbackRef)))

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, dest)
}

// FallbackResponse is the body of GET /api/fallback.
type FallbackResponse struct {
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Country string `json:"country,omitempty"`
}

// FallbackMessage handles GET /api/fallback?ref=&artist=&country=. Unknown refs get the generic copy.
func (h *Handler) FallbackMessage(c *gin.Context) {
	ref := strings.TrimSpace(c.Query("ref"))
	info := FallbackMessage(ref, strings.TrimSpace(c.Query("artist")))
	country, _ := geo.ParseCountryCode(c.Query("country"))
	response.OK(c, FallbackResponse{
		Ref:     string(info.Ref),
		Title:   info.Title,
		Message: info.Message,
		Country: country,
	})
}
