package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripUTMParams(t *testing.T) {
	t.Run("removes utm keys case-insensitively", func(t *testing.T) {
		got, stripped := StripUTMParams("https://example.org/act?utm_source=x&UTM_Medium=y&keep=1")
		assert.True(t, stripped)
		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, url.Values{"keep": {"1"}}, u.Query())
	})

	t.Run("nothing to strip", func(t *testing.T) {
		in := "https://example.org/act?keep=1"
		got, stripped := StripUTMParams(in)
		assert.False(t, stripped)
		assert.Equal(t, in, got)
	})

	t.Run("unparsable input unchanged", func(t *testing.T) {
		got, stripped := StripUTMParams("not a url")
		assert.False(t, stripped)
		assert.Equal(t, "not a url", got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once, _ := StripUTMParams("https://example.org/?utm_campaign=a&b=2&utm_term=z")
		twice, stripped := StripUTMParams(once)
		assert.Equal(t, once, twice)
		assert.False(t, stripped)
	})
}

func TestAppendUTMParams(t *testing.T) {
	t.Run("bare url", func(t *testing.T) {
		got := AppendUTMParams("https://example.com", "tame-impala")
		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, url.Values{
			"utm_source":   {DefaultUTMSource},
			"utm_medium":   {DefaultUTMMedium},
			"utm_campaign": {"tame-impala"},
		}, u.Query())
		assert.Contains(t, got, "utm_campaign=tame-impala")
	})

	t.Run("preserves existing params and overwrites utm", func(t *testing.T) {
		got := AppendUTMParams("https://example.com/join?ref=fan&utm_campaign=old", "radiohead")
		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "fan", u.Query().Get("ref"))
		assert.Equal(t, []string{"radiohead"}, u.Query()["utm_campaign"])
		assert.Equal(t, "/join", u.Path)
	})

	t.Run("unparsable input unchanged", func(t *testing.T) {
		assert.Equal(t, "example", AppendUTMParams("example", "x"))
	})

	t.Run("strip after append removes everything added", func(t *testing.T) {
		got, stripped := StripUTMParams(AppendUTMParams("https://example.com/?a=1", "x"))
		assert.True(t, stripped)
		assert.Equal(t, "https://example.com/?a=1", got)
	})
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, IsWebURL("https://example.org/act"))
	assert.True(t, IsWebURL(" http://example.org "))
	assert.False(t, IsWebURL("example.org"))
	assert.False(t, IsWebURL("ftp://example.org"))
	assert.False(t, IsWebURL("mailto:hi@example.org"))
	assert.False(t, IsWebURL(""))
}
