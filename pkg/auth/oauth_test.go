package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestRedirectURL(t *testing.T) {
	tests := []struct {
		configured string
		want       string
	}{
		{"", "http://localhost:6789/oauth2callback"},
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback"},
		{"http://localhost", "http://localhost:6789"},
		{"http://127.0.0.1:8080/cb", "http://127.0.0.1:6789/cb"},
		{"https://example.com/callback", "https://example.com/callback"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redirectURL(tt.configured), tt.configured)
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "organizer", TokenFile)
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, saveToken(path, tok))

	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
}

func TestTokenFromMissingFile(t *testing.T) {
	_, err := tokenFromFile(filepath.Join(t.TempDir(), TokenFile))
	assert.Error(t, err)
}
