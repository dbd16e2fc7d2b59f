package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"trackvault/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authBody(password string) []byte {
	data, _ := json.Marshal(map[string]string{"password": password})
	return data
}

func TestAuthWithStaticSecret(t *testing.T) {
	// Settings-less deployment: no override row, only the static secret.
	env := newTestEnv("abc")

	rec := doRequest(t, env.handler, http.MethodPost, "/auth", authBody("abc"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool   `json:"success"`
		Username   string `json:"username"`
		APIEnabled bool   `json:"api_enabled"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Admin", resp.Username)
	assert.True(t, resp.APIEnabled)

	rec = doRequest(t, env.handler, http.MethodPost, "/auth", authBody("xyz"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Public reads fail open with no settings row.
	rec = doRequest(t, env.handler, http.MethodGet, "/tracks", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEmptyPassword(t *testing.T) {
	env := newTestEnv("abc")
	for _, password := range []string{"", "   "} {
		rec := doRequest(t, env.handler, http.MethodPost, "/auth", authBody(password), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestAuthUnconfiguredIsDistinguished(t *testing.T) {
	// No static secret and no override anywhere: mis-deployed system.
	env := newTestEnv("")

	rec := doRequest(t, env.handler, http.MethodPost, "/auth", authBody("anything"), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code,
		"unconfigured must be distinct from wrong password")
}

func TestAuthComparisonIsExact(t *testing.T) {
	env := newTestEnv("Secret")

	for _, claimed := range []string{"secret", "SECRET", " Secret", "Secret "} {
		rec := doRequest(t, env.handler, http.MethodPost, "/auth", authBody(claimed), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "claimed %q", claimed)
	}
}

func TestPasswordOverrideSupersedesStaticSecret(t *testing.T) {
	env := newTestEnv("old-secret")

	body, _ := json.Marshal(map[string]interface{}{"new_password": "x"})
	rec := doRequest(t, env.handler, http.MethodPut, "/settings", body, adminHeaders("old-secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PasswordChanged bool `json:"password_changed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.PasswordChanged)

	// The new password works, the old one no longer does.
	rec = doRequest(t, env.handler, http.MethodPost, "/auth", authBody("x"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, env.handler, http.MethodPost, "/auth", authBody("old-secret"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Admin endpoints follow the resolver too.
	rec = doRequest(t, env.handler, http.MethodGet, "/settings", nil, adminHeaders("old-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doRequest(t, env.handler, http.MethodGet, "/settings", nil, adminHeaders("x"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSettingsReadDefaults(t *testing.T) {
	env := newTestEnv("secret")

	rec := doRequest(t, env.handler, http.MethodGet, "/settings", nil, adminHeaders("secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Username   string `json:"username"`
		APIEnabled bool   `json:"api_enabled"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Admin", resp.Username)
	assert.True(t, resp.APIEnabled)
}

func TestSettingsPartialUpdateDoesNotClobber(t *testing.T) {
	env := newTestEnv("secret")

	name := "DJ Operator"
	_, err := env.settingsRepo.UpsertSettings(model.SettingsUpdate{Username: &name})
	require.NoError(t, err)

	// Toggling the kill switch must not touch username or password override.
	body, _ := json.Marshal(map[string]interface{}{"api_enabled": false})
	rec := doRequest(t, env.handler, http.MethodPut, "/settings", body, adminHeaders("secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Username        string `json:"username"`
		APIEnabled      bool   `json:"api_enabled"`
		PasswordChanged bool   `json:"password_changed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DJ Operator", resp.Username)
	assert.False(t, resp.APIEnabled)
	assert.False(t, resp.PasswordChanged)

	// Static secret still authorizes: empty new_password is not an override.
	rec = doRequest(t, env.handler, http.MethodGet, "/settings", nil, adminHeaders("secret"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSettingsEmptyNewPasswordIsIgnored(t *testing.T) {
	env := newTestEnv("secret")

	body, _ := json.Marshal(map[string]interface{}{"new_password": ""})
	rec := doRequest(t, env.handler, http.MethodPut, "/settings", body, adminHeaders("secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PasswordChanged bool `json:"password_changed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.PasswordChanged)

	rec = doRequest(t, env.handler, http.MethodPost, "/auth", authBody("secret"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSettingsRequireAdmin(t *testing.T) {
	env := newTestEnv("secret")

	rec := doRequest(t, env.handler, http.MethodGet, "/settings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, _ := json.Marshal(map[string]interface{}{"api_enabled": false})
	rec = doRequest(t, env.handler, http.MethodPut, "/settings", body, adminHeaders("nope"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, env.settingsRepo.settings, "no mutation on rejected request")
}
