// Package urlutil holds the URL helpers used for redirect attribution and organization link checks.
package urlutil

import (
	"net/url"
	"strings"
)

// multiPartTLDs are public suffixes with two labels; the registrable domain then keeps three labels.
var multiPartTLDs = map[string]struct{}{
	"co.uk": {}, "org.uk": {}, "ac.uk": {}, "gov.uk": {}, "me.uk": {},
	"com.au": {}, "net.au": {}, "org.au": {}, "edu.au": {},
	"co.nz": {}, "org.nz": {}, "net.nz": {},
	"co.za": {}, "org.za": {},
	"com.br": {}, "org.br": {},
	"co.jp": {}, "or.jp": {},
	"co.in": {}, "org.in": {},
	"com.mx": {}, "org.mx": {},
	"com.ar": {}, "org.ar": {},
	"co.kr": {}, "or.kr": {},
	"com.sg": {}, "org.sg": {},
	"com.cn": {}, "org.cn": {},
	"co.il": {}, "org.il": {},
}

// PrimaryDomain returns the registrable domain of a URL or bare hostname,
// e.g. "https://action.example.org/x" -> "example.org". It reports false for
// single-label hosts and unparsable input.
func PrimaryDomain(urlOrHostname string) (string, bool) {
	s := strings.TrimSpace(urlOrHostname)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	labels := strings.Split(host, ".")
	for _, l := range labels {
		if l == "" {
			return "", false
		}
	}
	n := len(labels)
	if n < 2 {
		return "", false
	}
	if n >= 3 {
		if _, ok := multiPartTLDs[labels[n-2]+"."+labels[n-1]]; ok {
			return strings.Join(labels[n-3:], "."), true
		}
	}
	return labels[n-2] + "." + labels[n-1], true
}

// IsSamePrimaryDomain reports whether a and b resolve to the same registrable domain.
func IsSamePrimaryDomain(a, b string) bool {
	da, ok := PrimaryDomain(a)
	if !ok {
		return false
	}
	db, ok := PrimaryDomain(b)
	if !ok {
		return false
	}
	return da == db
}
