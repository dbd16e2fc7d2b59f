package model

import "time"

// Default values used whenever the settings row (or table) does not exist.
const (
	DefaultUsername   = "Admin"
	DefaultAPIEnabled = true
)

// Settings is the singleton admin settings record. PasswordOverride, when
// non-empty, supersedes the static deployment secret for admin checks.
type Settings struct {
	ID               int64     `json:"-"`
	Username         string    `json:"username"`
	PasswordOverride string    `json:"-"` // never exposed over the wire
	APIEnabled       bool      `json:"api_enabled"`
	UpdatedAt        time.Time `json:"-"`
}

// DefaultSettings returns the hard-coded defaults for an unprovisioned
// deployment.
func DefaultSettings() *Settings {
	return &Settings{
		Username:   DefaultUsername,
		APIEnabled: DefaultAPIEnabled,
	}
}

// SettingsUpdate is a partial update. Nil fields are left untouched by the
// upsert; set fields replace the stored value.
type SettingsUpdate struct {
	Username         *string
	PasswordOverride *string
	APIEnabled       *bool
}
