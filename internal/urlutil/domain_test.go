package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"subdomain with path", "https://action.climatechangemakers.org/path", "climatechangemakers.org", true},
		{"www stripped", "https://www.example.com", "example.com", true},
		{"bare hostname", "shop.example.com", "example.com", true},
		{"multi-part tld", "https://www.greenpeace.org.uk/act", "greenpeace.org.uk", true},
		{"multi-part tld deep", "a.b.example.com.au", "example.com.au", true},
		{"two labels only under multi-part", "co.uk", "co.uk", true},
		{"uppercase host", "HTTPS://Action.Example.ORG", "example.org", true},
		{"port ignored", "http://example.com:8080/x", "example.com", true},
		{"single label", "localhost", "", false},
		{"empty", "", "", false},
		{"garbage", "http://%zz", "", false},
		{"empty label", "https://example..com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrimaryDomain(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSamePrimaryDomain(t *testing.T) {
	assert.True(t, IsSamePrimaryDomain("https://donate.example.org/give", "www.example.org"))
	assert.False(t, IsSamePrimaryDomain("https://example.org", "https://example.com"))
	assert.False(t, IsSamePrimaryDomain("localhost", "localhost"))
	assert.False(t, IsSamePrimaryDomain("", ""))
}

func TestPrimaryDomain_IgnoresUTM(t *testing.T) {
	original := "https://action.example.org/join?x=1"
	tagged := AppendUTMParams(original, "tame-impala")

	d1, ok1 := PrimaryDomain(original)
	d2, ok2 := PrimaryDomain(tagged)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, d1, d2)
	assert.True(t, IsSamePrimaryDomain(original, tagged))
}
