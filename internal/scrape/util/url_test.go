package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips query", "https://jobs.lever.co/acme/123?lever-source=google", "https://jobs.lever.co/acme/123"},
		{"strips fragment", "https://boards.greenhouse.io/vimeo/jobs/1#app", "https://boards.greenhouse.io/vimeo/jobs/1"},
		{"strips both", "https://x.io/a?b=c#d", "https://x.io/a"},
		{"no-op", "https://jobs.ashbyhq.com/acme", "https://jobs.ashbyhq.com/acme"},
		{"bare question mark", "https://x.io/a?", "https://x.io/a"},
		{"malformed is unchanged", "http://[::1:bad?x=1", "http://[::1:bad?x=1"},
		{"control chars unchanged", "https://x.io/\x7f?x=1", "https://x.io/\x7f?x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalizeURL(tt.in))
		})
	}
}

func TestLastPathSegment(t *testing.T) {
	id := LastPathSegment("https://boards.greenhouse.io/vimeo/jobs/123/")
	require.NotNil(t, id)
	assert.Equal(t, "123", *id)

	assert.Nil(t, LastPathSegment("https://jobs.lever.co"))
	assert.Nil(t, LastPathSegment("https://jobs.lever.co/"))
	assert.Nil(t, LastPathSegment("http://[::1:bad"))
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t,
		"https://jobs.lever.co/acme/1",
		UnwrapRedirect("/url?q=https://jobs.lever.co/acme/1&sa=U&ved=abc"))
	assert.Equal(t, "/url?sa=U", UnwrapRedirect("/url?sa=U"))
	assert.Equal(t, "https://x.io/a", UnwrapRedirect("https://x.io/a"))
	assert.Equal(t, "/search?q=next", UnwrapRedirect("/search?q=next"))
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, IsAbsoluteURL("https://jobs.lever.co/acme"))
	assert.False(t, IsAbsoluteURL("/jobs/acme"))
	assert.False(t, IsAbsoluteURL("jobs.lever.co/acme"))
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Vimeo", CapitalizeFirst("vimeo"))
	assert.Equal(t, "Acme-corp", CapitalizeFirst("acme-corp"))
	assert.Equal(t, "ÉCole", CapitalizeFirst("éCole"))
	assert.Equal(t, "", CapitalizeFirst(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Senior Go Engineer", CleanText("  Senior Go \n Engineer "))
}
