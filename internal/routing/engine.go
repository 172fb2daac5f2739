// Package routing decides where a fan link sends a visitor.
package routing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/internal/routerconfig"
)

// Store is the read side of the data the engine walks.
// Lookups return a nil record, not an error, when nothing matches.
type Store interface {
	EnabledArtistByHandle(ctx context.Context, handle string) (*models.Artist, error)
	EnabledToursWithCountries(ctx context.Context, artistID uuid.UUID) ([]models.TourWithCountries, error)
	OrgOverride(ctx context.Context, orgID uuid.UUID) (*models.OrgOverride, error)
	CountryDefaultOrg(ctx context.Context, countryCode string, day time.Time) (*models.Organization, error)
}

// FallbackSource supplies the fallback landing page base URL.
type FallbackSource interface {
	FallbackURL(ctx context.Context) string
}

// Sink receives one analytics payload per decision. Log must not block.
type Sink interface {
	Log(payload models.RouterAnalytics)
}

// Request is one inbound fan-link hit.
type Request struct {
	ArtistSlug  string
	CountryCode string
}

// Result is the routing decision. OrgID and TourID are set only on success.
type Result struct {
	Success        bool                   `json:"success"`
	DestinationURL string                 `json:"destination_url"`
	OrgID          *uuid.UUID             `json:"org_id,omitempty"`
	TourID         *uuid.UUID             `json:"tour_id,omitempty"`
	ReasonCode     ReasonCode             `json:"reason_code"`
	FallbackRef    Ref                    `json:"fallback_ref,omitempty"`
	Analytics      models.RouterAnalytics `json:"analytics"`
}

var errMissingOrg = errors.New("country override references a missing organization")

// Engine runs the artist -> tour -> country -> organization decision chain.
type Engine struct {
	store    Store
	fallback FallbackSource
	sink     Sink
	now      func() time.Time
	logger   *zap.Logger
}

// NewEngine creates a routing engine.
func NewEngine(store Store, fallback FallbackSource, sink Sink, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, fallback: fallback, sink: sink, now: time.Now, logger: logger}
}

// decision is the outcome of the chain before URLs are built.
type decision struct {
	reason  ReasonCode
	ref     Ref
	artist  *models.Artist
	tour    *models.TourWithCountries
	org     *models.Organization
	country string
	// withCountry adds country= to the fallback URL.
	withCountry bool
}

// Route always returns a destination. Store failures and panics become the error fallback.
func (e *Engine) Route(ctx context.Context, req Request) (res Result) {
	now := e.now().UTC()
	req.ArtistSlug = strings.TrimSpace(req.ArtistSlug)
	req.CountryCode = strings.ToUpper(strings.TrimSpace(req.CountryCode))

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("routing panic", zap.Any("panic", r), zap.String("artist", req.ArtistSlug))
			res = e.build(ctx, req, decision{reason: ReasonError, ref: RefError, country: req.CountryCode}, now)
		}
		e.emit(res.Analytics)
	}()

	d, err := e.decide(ctx, req, now)
	if err != nil {
		e.logger.Error("routing failed", zap.Error(err), zap.String("artist", req.ArtistSlug), zap.String("country", req.CountryCode))
		d = decision{reason: ReasonError, ref: RefError, country: req.CountryCode}
	}
	return e.build(ctx, req, d, now)
}

func (e *Engine) decide(ctx context.Context, req Request, now time.Time) (decision, error) {
	d := decision{country: req.CountryCode}

	artist, err := e.store.EnabledArtistByHandle(ctx, req.ArtistSlug)
	if err != nil {
		return d, fmt.Errorf("resolve artist: %w", err)
	}
	if artist == nil || !artist.Enabled {
		d.reason, d.ref = ReasonArtistNotFound, RefUnknownArtist
		return d, nil
	}
	d.artist = artist

	tours, err := e.store.EnabledToursWithCountries(ctx, artist.ID)
	if err != nil {
		return d, fmt.Errorf("resolve tours: %w", err)
	}
	tour := activeTour(tours, now)
	if tour == nil {
		d.reason, d.ref = ReasonNoActiveTour, RefNoTour
		return d, nil
	}
	d.tour = tour

	if req.CountryCode == "" {
		d.reason, d.ref = ReasonCountryNotConfigured, RefNoCountry
		return d, nil
	}
	override := matchCountry(tour.Countries, req.CountryCode)
	if override == nil {
		d.reason, d.ref, d.withCountry = ReasonCountryNotConfigured, RefCountryNotSupported, true
		return d, nil
	}

	org := override.Org
	if override.OrgID == nil {
		org, err = e.store.CountryDefaultOrg(ctx, req.CountryCode, now)
		if err != nil {
			return d, fmt.Errorf("resolve country default: %w", err)
		}
		if org == nil {
			d.reason, d.ref, d.withCountry = ReasonCountryNotConfigured, RefCountryNotSupported, true
			return d, nil
		}
	} else if org == nil {
		return d, errMissingOrg
	}
	d.org = org
	d.withCountry = true

	ov, err := e.store.OrgOverride(ctx, org.ID)
	if err != nil {
		return d, fmt.Errorf("resolve org override: %w", err)
	}
	switch {
	case ov != nil && !ov.Enabled:
		d.reason, d.ref = ReasonOrgPaused, RefOrgPaused
	case org.ApprovalStatus != models.ApprovalApproved:
		d.reason, d.ref = ReasonOrgNotApproved, RefOrgNotApproved
	case strings.TrimSpace(org.WebsiteURL()) == "":
		d.reason, d.ref = ReasonOrgNotApproved, RefNoOrgWebsite
	default:
		d.reason, d.ref, d.withCountry = ReasonSuccess, "", false
	}
	return d, nil
}

// activeTour picks the latest-starting tour whose window contains now.
func activeTour(tours []models.TourWithCountries, now time.Time) *models.TourWithCountries {
	var best *models.TourWithCountries
	for i := range tours {
		t := &tours[i]
		if !t.Enabled || !t.ActiveAt(now) {
			continue
		}
		if best == nil || t.StartDate.After(best.StartDate) {
			best = t
		}
	}
	return best
}

func matchCountry(configs []models.TourCountryConfig, country string) *models.TourCountryConfig {
	for i := range configs {
		c := &configs[i]
		if c.Enabled && strings.EqualFold(strings.TrimSpace(c.CountryCode), country) {
			return c
		}
	}
	return nil
}

func (e *Engine) build(ctx context.Context, req Request, d decision, now time.Time) Result {
	res := Result{ReasonCode: d.reason, FallbackRef: d.ref}
	payload := models.RouterAnalytics{
		ID:           uuid.New(),
		ArtistHandle: req.ArtistSlug,
		CountryCode:  req.CountryCode,
		ReasonCode:   string(d.reason),
		FallbackRef:  string(d.ref),
		Timestamp:    now,
	}
	if d.tour != nil {
		id := d.tour.ID
		payload.TourID = &id
	}
	if d.org != nil {
		id := d.org.ID
		payload.OrgID = &id
	}

	if d.reason == ReasonSuccess {
		res.Success = true
		res.DestinationURL = strings.TrimSpace(d.org.WebsiteURL())
		res.OrgID, res.TourID = payload.OrgID, payload.TourID
	} else {
		artistName := ""
		if d.artist != nil {
			artistName = d.artist.Name
		}
		country := ""
		if d.withCountry {
			country = d.country
		}
		res.DestinationURL = fallbackDestination(e.fallbackBase(ctx), d.ref, artistName, country)
	}
	payload.DestinationURL = res.DestinationURL
	res.Analytics = payload
	return res
}

func (e *Engine) fallbackBase(ctx context.Context) (base string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fallback url panic", zap.Any("panic", r))
			base = DefaultFallbackURL
		}
	}()
	if e.fallback == nil {
		return DefaultFallbackURL
	}
	if base = e.fallback.FallbackURL(ctx); base == "" {
		return DefaultFallbackURL
	}
	return base
}

func (e *Engine) emit(payload models.RouterAnalytics) {
	if e.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("analytics sink panic", zap.Any("panic", r))
		}
	}()
	e.sink.Log(payload)
}

// DefaultFallbackURL is used when no fallback source is wired or it returns nothing.
const DefaultFallbackURL = routerconfig.DefaultFallbackURL

// fallbackDestination appends ref=..[&artist=..][&country=..] to base's query, keeping ref first
// and any existing query params and fragment in place.
func fallbackDestination(base string, ref Ref, artist, country string) string {
	var q strings.Builder
	q.WriteString("ref=")
	q.WriteString(url.QueryEscape(string(ref)))
	if artist != "" {
		q.WriteString("&artist=")
		q.WriteString(url.QueryEscape(artist))
	}
	if country != "" {
		q.WriteString("&country=")
		q.WriteString(url.QueryEscape(country))
	}

	u, err := url.Parse(base)
	if err != nil {
		u, _ = url.Parse(DefaultFallbackURL)
	}
	if u.RawQuery != "" {
		u.RawQuery += "&" + q.String()
	} else {
		u.RawQuery = q.String()
	}
	return u.String()
}

func replaceArtist(msg, name string) string {
	return strings.ReplaceAll(msg, "{artist}", name)
}
