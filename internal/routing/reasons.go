package routing

// ReasonCode classifies a routing decision.
type ReasonCode string

const (
	ReasonSuccess              ReasonCode = "success"
	ReasonArtistNotFound       ReasonCode = "artist_not_found"
	ReasonNoActiveTour         ReasonCode = "no_active_tour"
	ReasonCountryNotConfigured ReasonCode = "country_not_configured"
	ReasonOrgNotApproved       ReasonCode = "org_not_approved"
	ReasonOrgPaused            ReasonCode = "org_paused"
	ReasonError                ReasonCode = "error"
)

// Ref is the token sent to the fallback landing page in ?ref=.
type Ref string

const (
	RefUnknownArtist       Ref = "unknown_artist"
	RefNoTour              Ref = "no_tour"
	RefNoCountry           Ref = "no_country"
	RefCountryNotSupported Ref = "country_not_supported"
	RefOrgPaused           Ref = "org_paused"
	RefOrgNotApproved      Ref = "org_not_approved"
	RefNoOrgWebsite        Ref = "no_org_website"
	RefError               Ref = "error"
)

// Actor is who can resolve a fallback.
type Actor string

const (
	ActorArtist   Actor = "artist"
	ActorPlatform Actor = "platform"
)

// ReasonInfo describes one fallback ref for fans and for the dashboard.
type ReasonInfo struct {
	Ref      Ref        `json:"ref"`
	Reason   ReasonCode `json:"reason_code"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Label    string     `json:"label"`
	Recovery string     `json:"recovery"`
	ActionBy Actor      `json:"action_by"`
}

var reasonTable = map[Ref]ReasonInfo{
	RefUnknownArtist: {
		Ref: RefUnknownArtist, Reason: ReasonArtistNotFound,
		Title:    "We couldn't find that artist",
		Message:  "This link doesn't match an artist on AMPLIFY. You can still take climate action with Music Declares Emergency.",
		Label:    "Unknown artist link",
		Recovery: "Check the handle in the shared link. Disabled artists also land here.",
		ActionBy: ActorPlatform,
	},
	RefNoTour: {
		Ref: RefNoTour, Reason: ReasonNoActiveTour,
		Title:    "No tour is running right now",
		Message:  "{artist} isn't on tour at the moment, but you can still take climate action.",
		Label:    "No active tour",
		Recovery: "Add a tour covering today's date, or widen the pre/post tour window.",
		ActionBy: ActorArtist,
	},
	RefNoCountry: {
		Ref: RefNoCountry, Reason: ReasonCountryNotConfigured,
		Title:    "We couldn't tell where you are",
		Message:  "We couldn't detect your country, so here are ways to act wherever you are.",
		Label:    "Country not detected",
		Recovery: "Visitor location was unavailable. No action needed unless this count is high.",
		ActionBy: ActorPlatform,
	},
	RefCountryNotSupported: {
		Ref: RefCountryNotSupported, Reason: ReasonCountryNotConfigured,
		Title:    "Not available in your country yet",
		Message:  "{artist} hasn't set up a partner in your country yet. Here are other ways to act.",
		Label:    "Country not configured for tour",
		Recovery: "Add or enable a country for the active tour, or set a country default organization.",
		ActionBy: ActorArtist,
	},
	RefOrgPaused: {
		Ref: RefOrgPaused, Reason: ReasonOrgPaused,
		Title:    "This partner is taking a break",
		Message:  "The organization {artist} partners with here is temporarily paused.",
		Label:    "Organization paused",
		Recovery: "An admin paused this organization. Pick another organization or lift the pause.",
		ActionBy: ActorPlatform,
	},
	RefOrgNotApproved: {
		Ref: RefOrgNotApproved, Reason: ReasonOrgNotApproved,
		Title:    "This partner isn't ready yet",
		Message:  "The organization for your country is still being set up.",
		Label:    "Organization not approved",
		Recovery: "The organization is awaiting approval. Approve it or choose an approved one.",
		ActionBy: ActorPlatform,
	},
	RefNoOrgWebsite: {
		Ref: RefNoOrgWebsite, Reason: ReasonOrgNotApproved,
		Title:    "This partner isn't ready yet",
		Message:  "The organization for your country is still being set up.",
		Label:    "Organization missing website",
		Recovery: "Add a website to the organization.",
		ActionBy: ActorPlatform,
	},
	RefError: {
		Ref: RefError, Reason: ReasonError,
		Title:    "Something went wrong",
		Message:  "We hit a problem sending you on, but you can still take climate action here.",
		Label:    "Routing error",
		Recovery: "Unexpected failure while routing. Check service logs.",
		ActionBy: ActorPlatform,
	},
}

var genericReason = ReasonInfo{
	Title:   "Take climate action",
	Message: "Music Declares Emergency connects fans with climate organizations around the world.",
}

// Refs returns every fallback ref the engine can emit.
func Refs() []Ref {
	return []Ref{
		RefUnknownArtist, RefNoTour, RefNoCountry, RefCountryNotSupported,
		RefOrgPaused, RefOrgNotApproved, RefNoOrgWebsite, RefError,
	}
}

// LookupReason returns the table entry for ref.
func LookupReason(ref string) (ReasonInfo, bool) {
	info, ok := reasonTable[Ref(ref)]
	return info, ok
}

// FallbackMessage returns the fan-facing copy for ref, with {artist} filled in.
// Unknown or empty refs get the generic landing message.
func FallbackMessage(ref, artist string) ReasonInfo {
	info, ok := LookupReason(ref)
	if !ok {
		return genericReason
	}
	name := artist
	if name == "" {
		name = "This artist"
	}
	info.Message = replaceArtist(info.Message, name)
	return info
}
