package urlutil

import (
	"net/url"
	"strings"
)

const (
	// DefaultUTMSource is the utm_source stamped on every successful redirect.
	DefaultUTMSource = "amplify"
	// DefaultUTMMedium is the utm_medium stamped on every successful redirect.
	DefaultUTMMedium = "referral"
)

// parseAbsolute accepts only absolute URLs with a host.
func parseAbsolute(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// StripUTMParams removes every query key starting with "utm_" (case-insensitive).
// It returns the input unchanged with stripped=false if the URL cannot be parsed.
func StripUTMParams(raw string) (string, bool) {
	u, ok := parseAbsolute(raw)
	if !ok {
		return raw, false
	}
	q := u.Query()
	stripped := false
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
			stripped = true
		}
	}
	if !stripped {
		return raw, false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// AppendUTMParams sets utm_source/utm_medium to the defaults and utm_campaign to campaign.
func AppendUTMParams(raw, campaign string) string {
	return AppendUTM(raw, DefaultUTMSource, DefaultUTMMedium, campaign)
}

// AppendUTM sets the three UTM keys, keeping other query parameters. Unparsable input is returned as-is.
func AppendUTM(raw, source, medium, campaign string) string {
	u, ok := parseAbsolute(raw)
	if !ok {
		return raw
	}
	q := u.Query()
	q.Set("utm_source", source)
	q.Set("utm_medium", medium)
	q.Set("utm_campaign", campaign)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsWebURL reports whether raw is an absolute http or https URL.
func IsWebURL(raw string) bool {
	u, ok := parseAbsolute(raw)
	return ok && (u.Scheme == "http" || u.Scheme == "https")
}
