package domain

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
	RoleSales   Role = "sales"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupport, RoleSales:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences are the per-session UI preferences.
type Preferences struct {
	Theme    string `json:"theme" yaml:"theme"`
	Currency string `json:"currency" yaml:"currency"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, Currency: DefaultCurrency}
}

// Normalize fills unset preferences and rejects unknown values.
func (p Preferences) Normalize() (Preferences, error) {
	if p.Theme == "" {
		p.Theme = ThemeLight
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		return p, ValidationError{Field: "theme", Message: "must be light or dark"}
	}
	if _, ok := LookupCurrency(p.Currency); !ok {
		return p, ValidationError{Field: "currency", Message: "unsupported currency " + p.Currency}
	}
	return p, nil
}

type Session struct {
	Token       string      `json:"token"`
	User        User        `json:"user"`
	Preferences Preferences `json:"preferences"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}
