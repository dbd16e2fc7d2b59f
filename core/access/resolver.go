// Package access holds the admin-credential and kill-switch logic: a
// resolver that picks the effective admin secret, a guard that validates
// claimed credentials, and a feature gate for the public API.
package access

import (
	"trackvault/logger"
	"trackvault/model"
)

// Source tells where the effective admin secret came from.
type Source int

const (
	// SourceUnconfigured means no secret exists anywhere; nothing can
	// authenticate.
	SourceUnconfigured Source = iota
	// SourceStatic means the static deployment secret is in effect.
	SourceStatic
	// SourceOverride means a stored password override shadows the static
	// secret.
	SourceOverride
)

// Secret is the resolved admin secret tagged with its origin.
type Secret struct {
	Value  string
	Source Source
}

// SettingsReader is the narrow read capability the resolver needs from the
// settings store.
type SettingsReader interface {
	GetSettings() (*model.Settings, error)
}

// Resolver determines the effective admin secret and feature flags. It holds
// no state between calls: every resolution re-reads the store, so an
// override written by one request is seen by the next.
type Resolver struct {
	settings SettingsReader
	static   string
}

// NewResolver creates a resolver over the settings store and the static
// deployment secret (may be empty when unset).
func NewResolver(settings SettingsReader, staticSecret string) *Resolver {
	return &Resolver{settings: settings, static: staticSecret}
}

// AdminSecret resolves the currently effective admin secret. A stored
// non-empty password override wins over the static secret. Store errors and
// a missing row both mean "no override" and never propagate: a broken
// settings store must not take down credential resolution.
func (r *Resolver) AdminSecret() Secret {
	settings, err := r.settings.GetSettings()
	if err != nil {
		logger.Warn("Settings unreadable, falling back to static admin secret", logger.ErrorField(err))
	} else if settings != nil && settings.PasswordOverride != "" {
		return Secret{Value: settings.PasswordOverride, Source: SourceOverride}
	}

	if r.static != "" {
		return Secret{Value: r.static, Source: SourceStatic}
	}
	return Secret{Source: SourceUnconfigured}
}

// CurrentSettings returns the stored settings, or the hard-coded defaults
// when the row is absent or the store is unreadable.
func (r *Resolver) CurrentSettings() *model.Settings {
	settings, err := r.settings.GetSettings()
	if err != nil || settings == nil {
		return model.DefaultSettings()
	}
	return settings
}
