// Package geo resolves the visitor's country from edge-provider request headers.
package geo

import (
	"net/http"
	"strings"
)

// Provider is one geo header and the value its provider sends when it cannot locate the client.
type Provider struct {
	Header  string
	Unknown string
}

// DefaultProviders is the header priority chain: Vercel first, then Cloudflare.
var DefaultProviders = []Provider{
	{Header: "X-Vercel-IP-Country", Unknown: "XX"},
	{Header: "CF-IPCountry", Unknown: "XX"},
}

// Resolver reads a country code from request headers using an ordered provider chain.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver. With no providers it uses DefaultProviders.
func NewResolver(providers ...Provider) *Resolver {
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	return &Resolver{providers: providers}
}

// CountryFromHeaders returns the first present, non-sentinel value in provider order, upper-cased.
func (r *Resolver) CountryFromHeaders(h http.Header) (string, bool) {
	for _, p := range r.providers {
		v := strings.ToUpper(strings.TrimSpace(h.Get(p.Header)))
		if v == "" || strings.EqualFold(v, p.Unknown) {
			continue
		}
		return v, true
	}
	return "", false
}

// CountryFromRequest is CountryFromHeaders for an inbound request.
func (r *Resolver) CountryFromRequest(req *http.Request) (string, bool) {
	if req == nil {
		return "", false
	}
	return r.CountryFromHeaders(req.Header)
}

// ParseCountryCode upper-cases s and reports whether it is two ASCII letters.
func ParseCountryCode(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 2 {
		return "", false
	}
	for i := 0; i < 2; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return "", false
		}
	}
	return code, true
}
