// Package appctx persists the command-line client's session and display
// preferences between invocations.
package appctx

import (
	"os"
	"path/filepath"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/robtrove/TroveCRM/internal/domain"
)

const DefaultServer = "http://localhost:8000"

type Context struct {
	Server   string `yaml:"server"`
	Token    string `yaml:"token"`
	User     string `yaml:"user"`
	Currency string `yaml:"currency"`
	Theme    string `yaml:"theme"`
}

func Default() Context {
	prefs := domain.DefaultPreferences()
	return Context{
		Server:   DefaultServer,
		Currency: prefs.Currency,
		Theme:    prefs.Theme,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/trovecrm/context.yaml or its platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config dir")
	}
	return filepath.Join(dir, "trovecrm", "context.yaml"), nil
}

// Load reads the context file. A missing file yields the defaults.
func Load(path string) (Context, error) {
	ctx := Default()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ctx, nil
	}
	if err != nil {
		return Context{}, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(raw, &ctx); err != nil {
		return Context{}, errors.Wrapf(err, "decode %s", path)
	}

	def := Default()
	if ctx.Server == "" {
		ctx.Server = def.Server
	}
	if ctx.Currency == "" {
		ctx.Currency = def.Currency
	}
	if ctx.Theme == "" {
		ctx.Theme = def.Theme
	}
	return ctx, nil
}

func (c Context) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create context dir")
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode context")
	}
	return os.WriteFile(path, raw, 0o600)
}

// Clear drops the session and preferences, keeping the server.
func (c Context) Clear() Context {
	def := Default()
	def.Server = c.Server
	return def
}

func (c Context) LoggedIn() bool {
	return c.Token != ""
}

func (c Context) Preferences() domain.Preferences {
	return domain.Preferences{Theme: c.Theme, Currency: c.Currency}
}

// WithSession records a fresh login.
func (c Context) WithSession(s domain.Session) Context {
	c.Token = s.Token
	c.User = s.User.Username
	c.Currency = s.Preferences.Currency
	c.Theme = s.Preferences.Theme
	return c
}
