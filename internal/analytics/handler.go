package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/routing"
	"github.com/musicdeclares/amplify/pkg/response"
	"github.com/musicdeclares/amplify/pkg/storage"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

// Store is the read side of router_analytics used by the handler.
type Store interface {
	FallbackCounts(ctx context.Context, handle string, since time.Time) ([]models.FallbackCount, error)
	CountSuccess(ctx context.Context, handle string, since time.Time) (int, error)
	List(ctx context.Context, handle string, since time.Time) ([]models.RouterAnalytics, error)
}

// ArtistLookup resolves the artist behind /artists/:id routes.
type ArtistLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
}

// Exporter uploads export files and signs download links.
type Exporter interface {
	UploadExport(ctx context.Context, key, contentType string, body io.Reader) error
	PresignExportDownload(ctx context.Context, key string) (string, error)
}

// Handler serves fallback diagnostics and exports.
type Handler struct {
	store    Store
	artists  ArtistLookup
	exporter Exporter
	now      func() time.Time
	logger   *zap.Logger
}

// NewHandler creates an analytics handler. exporter may be nil when S3 is not configured.
func NewHandler(store Store, artists ArtistLookup, exporter Exporter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, artists: artists, exporter: exporter, now: time.Now, logger: logger}
}

// Diagnostic is one fallback ref with its count and what to do about it.
type Diagnostic struct {
	models.FallbackCount
	ReasonCode routing.ReasonCode `json:"reason_code,omitempty"`
	Label      string             `json:"label"`
	Recovery   string             `json:"recovery"`
	ActionBy   routing.Actor      `json:"action_by,omitempty"`
}

// DiagnosticsResponse is the body of the fallback diagnostics endpoints.
type DiagnosticsResponse struct {
	ArtistHandle string       `json:"artist_handle,omitempty"`
	Since        time.Time    `json:"since"`
	Successes    int          `json:"successes"`
	Fallbacks    []Diagnostic `json:"fallbacks"`
}

// AdminFallbacks handles GET /admin/analytics/fallbacks?artist=&days=.
func (h *Handler) AdminFallbacks(c *gin.Context) {
	since, ok := h.since(c)
	if !ok {
		return
	}
	h.respondDiagnostics(c, strings.ToLower(strings.TrimSpace(c.Query("artist"))), since)
}

// ArtistFallbacks handles GET /artists/:id/analytics/fallbacks. Access is enforced by route middleware.
func (h *Handler) ArtistFallbacks(c *gin.Context) {
	artist, ok := h.artistFromParam(c)
	if !ok {
		return
	}
	since, ok := h.since(c)
	if !ok {
		return
	}
	h.respondDiagnostics(c, artist.Handle, since)
}

func (h *Handler) respondDiagnostics(c *gin.Context, handle string, since time.Time) {
	ctx := c.Request.Context()
	counts, err := h.store.FallbackCounts(ctx, handle, since)
	if err != nil {
		h.logger.Error("load fallback counts", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	successes, err := h.store.CountSuccess(ctx, handle, since)
	if err != nil {
		h.logger.Error("load success count", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	response.OK(c, DiagnosticsResponse{
		ArtistHandle: handle,
		Since:        since,
		Successes:    successes,
		Fallbacks:    Diagnose(counts),
	})
}

// Diagnose attaches the reason table entry to each count. Unknown refs keep their raw token as label.
func Diagnose(counts []models.FallbackCount) []Diagnostic {
	out := make([]Diagnostic, 0, len(counts))
	for _, fc := range counts {
		d := Diagnostic{FallbackCount: fc, Label: fc.FallbackRef}
		if info, ok := routing.LookupReason(fc.FallbackRef); ok {
			d.ReasonCode = info.Reason
			d.Label = info.Label
			d.Recovery = info.Recovery
			d.ActionBy = info.ActionBy
		}
		out = append(out, d)
	}
	return out
}

// Export handles POST /admin/analytics/export?artist=&days=. Uploads a CSV and returns a signed link.
func (h *Handler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.ServiceUnavailable(c, "export storage not configured")
		return
	}
	since, ok := h.since(c)
	if !ok {
		return
	}
	handle := strings.ToLower(strings.TrimSpace(c.Query("artist")))
	ctx := c.Request.Context()

	rows, err := h.store.List(ctx, handle, since)
	if err != nil {
		h.logger.Error("load analytics rows", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	buf, err := EncodeCSV(rows)
	if err != nil {
		response.Internal(c, "failed to encode export")
		return
	}
	key := storage.ExportKey(handle, h.now())
	if err := h.exporter.UploadExport(ctx, key, "text/csv", buf); err != nil {
		h.logger.Error("upload export", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload export")
		return
	}
	link, err := h.exporter.PresignExportDownload(ctx, key)
	if err != nil {
		response.Internal(c, "failed to sign export link")
		return
	}
	response.Created(c, gin.H{"key": key, "rows": len(rows), "download_url": link})
}

// EncodeCSV renders analytics rows with a header line.
func EncodeCSV(rows []models.RouterAnalytics) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "timestamp", "artist_handle", "country_code", "tour_id", "org_id", "reason_code", "fallback_ref", "destination_url"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			r.ID.String(),
			r.Timestamp.UTC().Format(time.RFC3339),
			r.ArtistHandle,
			r.CountryCode,
			uuidString(r.TourID),
			uuidString(r.OrgID),
			r.ReasonCode,
			r.FallbackRef,
			r.DestinationURL,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return &buf, w.Error()
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func (h *Handler) since(c *gin.Context) (time.Time, bool) {
	days := defaultWindowDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxWindowDays {
			response.BadRequest(c, "days must be between 1 and 365")
			return time.Time{}, false
		}
		days = n
	}
	return h.now().UTC().AddDate(0, 0, -days), true
}

func (h *Handler) artistFromParam(c *gin.Context) (*models.Artist, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid artist id")
		return nil, false
	}
	artist, err := h.artists.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load artist")
		return nil, false
	}
	if artist == nil {
		response.NotFound(c, "artist not found")
		return nil, false
	}
	return artist, true
}
