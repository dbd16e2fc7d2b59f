package access

import (
	"errors"
	"testing"

	"trackvault/model"

	"github.com/stretchr/testify/assert"
)

type stubSettings struct {
	settings *model.Settings
	err      error
}

func (s *stubSettings) GetSettings() (*model.Settings, error) {
	return s.settings, s.err
}

func TestAdminSecretPrefersOverride(t *testing.T) {
	r := NewResolver(&stubSettings{settings: &model.Settings{PasswordOverride: "override", APIEnabled: true}}, "static")

	secret := r.AdminSecret()
	assert.Equal(t, SourceOverride, secret.Source)
	assert.Equal(t, "override", secret.Value)
}

func TestAdminSecretFallsBackToStatic(t *testing.T) {
	cases := map[string]*stubSettings{
		"no row":         {},
		"empty override": {settings: &model.Settings{APIEnabled: true}},
		"store error":    {err: errors.New("table missing")},
	}
	for name, stub := range cases {
		r := NewResolver(stub, "static")
		secret := r.AdminSecret()
		assert.Equal(t, SourceStatic, secret.Source, name)
		assert.Equal(t, "static", secret.Value, name)
	}
}

func TestAdminSecretUnconfigured(t *testing.T) {
	r := NewResolver(&stubSettings{}, "")
	assert.Equal(t, SourceUnconfigured, r.AdminSecret().Source)
}

func TestAuthorizeFailsClosed(t *testing.T) {
	r := NewResolver(&stubSettings{}, "static")

	assert.False(t, r.Authorize(""), "empty claim")
	assert.False(t, r.Authorize("wrong"))
	assert.False(t, r.Authorize("Static"), "no case folding")
	assert.False(t, r.Authorize(" static"), "no trimming")
	assert.True(t, r.Authorize("static"))

	unconfigured := NewResolver(&stubSettings{}, "")
	assert.False(t, unconfigured.Authorize("anything"), "nothing authenticates when unconfigured")
}

func TestAuthorizeTracksOverrideChanges(t *testing.T) {
	stub := &stubSettings{}
	r := NewResolver(stub, "static")
	assert.True(t, r.Authorize("static"))

	// Override written between requests takes effect immediately: nothing is
	// cached across calls.
	stub.settings = &model.Settings{PasswordOverride: "new", APIEnabled: true}
	assert.True(t, r.Authorize("new"))
	assert.False(t, r.Authorize("static"))
}

func TestPublicAPIEnabledFailsOpen(t *testing.T) {
	assert.True(t, NewResolver(&stubSettings{}, "").PublicAPIEnabled(), "no row")
	assert.True(t, NewResolver(&stubSettings{err: errors.New("down")}, "").PublicAPIEnabled(), "store error")
	assert.True(t, NewResolver(&stubSettings{settings: &model.Settings{APIEnabled: true}}, "").PublicAPIEnabled())
	assert.False(t, NewResolver(&stubSettings{settings: &model.Settings{APIEnabled: false}}, "").PublicAPIEnabled())
}

func TestCurrentSettingsDefaults(t *testing.T) {
	r := NewResolver(&stubSettings{err: errors.New("down")}, "")
	settings := r.CurrentSettings()
	assert.Equal(t, model.DefaultUsername, settings.Username)
	assert.True(t, settings.APIEnabled)

	stored := &model.Settings{Username: "DJ", APIEnabled: false}
	r = NewResolver(&stubSettings{settings: stored}, "")
	assert.Equal(t, "DJ", r.CurrentSettings().Username)
}
