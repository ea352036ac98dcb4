package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing slash", "https://example.com/about/", "https://example.com/about"},
		{"root slash", "https://example.com/", "https://example.com"},
		{"fragment ignored", "https://example.com/projects#villa", "https://example.com/projects"},
		{"query ignored", "https://example.com/projects?page=2", "https://example.com/projects"},
		{"case folded host", "HTTPS://Example.COM/Team", "https://example.com/Team"},
		{"default port dropped", "http://example.com:80/a", "http://example.com/a"},
		{"www folded into apex", "https://www.Example.com/about/", "https://example.com/about"},
		{"custom port kept", "http://example.com:8080/a/", "http://example.com:8080/a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalURL_RejectsRelative(t *testing.T) {
	_, err := CanonicalURL("/about")
	assert.Error(t, err)
}

func TestSameHost(t *testing.T) {
	assert.True(t, SameHost("https://example.com/a", "http://www.example.com/b"))
	assert.True(t, SameHost("https://EXAMPLE.com", "https://example.com/x"))
	assert.False(t, SameHost("https://example.com", "https://other.com"))
	assert.False(t, SameHost("https://blog.example.com", "https://example.com"))
	assert.False(t, SameHost("mailto:info@example.com", "https://example.com"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://example.com/studio/")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "../projects/villa-a#gallery")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/projects/villa-a", got)
}

func TestHashURL_Stable(t *testing.T) {
	assert.Equal(t, HashURL("https://example.com"), HashURL("https://example.com"))
	assert.NotEqual(t, HashURL("https://example.com"), HashURL("https://example.org"))
	assert.Len(t, HashURL("x"), 64)
}
