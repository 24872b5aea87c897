package appctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	ctx, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), ctx)
	assert.False(t, ctx.LoggedIn())
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trovecrm", "context.yaml")

	ctx := Default().WithSession(domain.Session{
		Token:       "tok",
		User:        domain.User{Username: "alice"},
		Preferences: domain.Preferences{Theme: "dark", Currency: "EUR"},
	})
	require.NoError(t, ctx.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{"server:", "token:", "user:", "currency:", "theme:"} {
		assert.Contains(t, string(raw), key)
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ctx, loaded)
	assert.True(t, loaded.LoggedIn())
	assert.Equal(t, domain.Preferences{Theme: "dark", Currency: "EUR"}, loaded.Preferences())

	cleared := loaded.Clear()
	assert.Equal(t, DefaultServer, cleared.Server)
	assert.Empty(t, cleared.Token)
	assert.Empty(t, cleared.User)
	assert.Equal(t, "USD", cleared.Currency)
}

func TestLoadFillsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: https://crm.example.com\ntoken: abc\n"), 0o600))

	ctx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com", ctx.Server)
	assert.Equal(t, "abc", ctx.Token)
	assert.Equal(t, domain.ThemeLight, ctx.Theme)
}
