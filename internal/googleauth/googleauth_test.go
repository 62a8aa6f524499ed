package googleauth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: exp}))

	tok, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, exp.Equal(tok.Expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMissingToken(t *testing.T) {
	_, err := TokenFromFile(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecret), 0o600))

	cfg, err := ConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id.apps.googleusercontent.com", cfg.ClientID)
	assert.ElementsMatch(t, Scopes, cfg.Scopes)

	_, err = ConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestClientRequiresToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(clientSecret), 0o600))

	_, err := Client(context.Background(), creds, filepath.Join(dir, "token.json"))
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, SaveToken(filepath.Join(dir, "token.json"), &oauth2.Token{AccessToken: "a"}))
	c, err := Client(context.Background(), creds, filepath.Join(dir, "token.json"))
	require.NoError(t, err)
	assert.NotNil(t, c)
}
